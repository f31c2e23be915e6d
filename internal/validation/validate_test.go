package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/input-output-hk/catalyst-forge-libs/ufile/errors"
)

func TestValidateBucketName(t *testing.T) {
	tests := []struct {
		name    string
		bucket  string
		wantErr bool
	}{
		{"valid_simple", "my-bucket", false},
		{"valid_with_numbers", "bucket123", false},
		{"empty", "", true},
		{"contains_dot", "my.bucket", true},
		{"contains_slash", "my/bucket", true},
		{"contains_space", "my bucket", true},
		{"contains_control", "my\x00bucket", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBucketName(tt.bucket)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrInvalidBucketName)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateObjectKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid_simple", "photo.jpg", false},
		{"valid_nested", "dir/sub/file.bin", false},
		{"valid_unicode", "文档/报告.pdf", false},
		{"valid_max_length", strings.Repeat("k", MaxKeyLength), false},
		{"empty", "", true},
		{"too_long", strings.Repeat("k", MaxKeyLength+1), true},
		{"control_character", "file\x01name", true},
		{"newline", "file\nname", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateObjectKey(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrInvalidObjectKey)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateMimeType(t *testing.T) {
	assert.NoError(t, ValidateMimeType("text/plain"))
	assert.NoError(t, ValidateMimeType("application/octet-stream"))
	assert.NoError(t, ValidateMimeType("text/plain; charset=utf-8"))

	assert.ErrorIs(t, ValidateMimeType(""), errors.ErrMissingContentType)
	assert.ErrorIs(t, ValidateMimeType("not a mime type"), errors.ErrInvalidInput)
}

func TestValidateMetadata(t *testing.T) {
	assert.NoError(t, ValidateMetadata(nil))
	assert.NoError(t, ValidateMetadata(map[string]string{"owner": "team-a"}))

	assert.ErrorIs(t,
		ValidateMetadata(map[string]string{"": "v"}), errors.ErrInvalidInput)
	assert.ErrorIs(t,
		ValidateMetadata(map[string]string{"bad key": "v"}), errors.ErrInvalidInput)
	assert.ErrorIs(t,
		ValidateMetadata(map[string]string{"k": "line1\nline2"}), errors.ErrInvalidInput)
}
