package validation_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	domainerrors "github.com/quillapp/quill-server/internal/errors"
	"github.com/quillapp/quill-server/internal/validation"
)

type TestRequest struct {
	Title   string `json:"title" validate:"required,max=500"`
	Content string `json:"content" validate:"required"`
	Summary string `json:"summary" validate:"omitempty,max=1000"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	req := TestRequest{
		Title:   "Weekly review",
		Content: "everything is on track",
	}

	err := v.Validate(req)
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name     string
		req      TestRequest
		wantCode domainerrors.Code
	}{
		{
			name: "missing required field",
			req: TestRequest{
				Title:   "Title",
				Content: "", // Missing
			},
			wantCode: domainerrors.CodeValidation,
		},
		{
			name: "title too long",
			req: TestRequest{
				Title:   strings.Repeat("a", 501),
				Content: "body",
			},
			wantCode: domainerrors.CodeValidation,
		},
		{
			name: "summary too long",
			req: TestRequest{
				Title:   "Title",
				Content: "body",
				Summary: strings.Repeat("s", 1001),
			},
			wantCode: domainerrors.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			assert.Error(t, err)

			var domainErr *domainerrors.Error
			if assert.True(t, errors.As(err, &domainErr)) {
				assert.Equal(t, tt.wantCode, domainErr.Code)
				assert.NotNil(t, domainErr.Details)
			}
		})
	}
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	req := TestRequest{
		Title:   "",
		Content: "body",
	}

	err := v.Validate(req)
	assert.Error(t, err)

	// Should use JSON tag name "title", not struct field name "Title"
	var domainErr *domainerrors.Error
	if assert.True(t, errors.As(err, &domainErr)) {
		details, ok := domainErr.Details.(map[string]string)
		if assert.True(t, ok) {
			_, hasLower := details["title"]
			_, hasUpper := details["Title"]
			assert.True(t, hasLower)
			assert.False(t, hasUpper)
		}
	}
}
