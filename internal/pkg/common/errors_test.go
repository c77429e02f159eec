package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomErrorIsByCode(t *testing.T) {
	root := errors.New("disk on fire")
	err := fmt.Errorf("list recipes: %w", ErrCatalogUnavailable.Wrap(root))

	assert.True(t, errors.Is(err, ErrCatalogUnavailable))
	assert.True(t, errors.Is(err, root))
	assert.False(t, errors.Is(err, ErrInvalidInput))
	assert.Equal(t, http.StatusServiceUnavailable, StatusFor(err))
	assert.Equal(t, ErrCodeCatalogUnavailable, CodeFor(err))
	assert.Equal(t, "recipe catalog unavailable", MessageFor(err))
}

func TestStatusForPlainError(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, http.StatusInternalServerError, StatusFor(err))
	assert.Equal(t, ErrCodeInternalError, CodeFor(err))
	assert.Equal(t, ErrInternalError.Message, MessageFor(err))
}

func TestWithMessageKeepsCode(t *testing.T) {
	err := ErrInvalidInput.WithMessage("top_k must be positive")

	assert.True(t, errors.Is(err, ErrMissingSession))
	assert.Equal(t, "top_k must be positive", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.Status)
}

func TestSanitizeSessionID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "abc-123_X", "abc-123_X"},
		{"path separators", "../etc/passwd", "___etc_passwd"},
		{"unicode", "會話1", "__1"},
		{"blank", "   ", "session"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeSessionID(tt.in))
		})
	}
}

func TestFormatProducts(t *testing.T) {
	got := FormatProducts([]ProductRecord{
		{Name: "Eggs", Category: "Dairy"},
		{Name: "Flour"},
	})
	assert.Equal(t, "Eggs(Dairy)、Flour", got)
}

func TestDecodeJSONRejectsTrailingData(t *testing.T) {
	var v map[string]string
	assert.NoError(t, ParseJSON(`{"a":"b"}`, &v))
	assert.Error(t, ParseJSON(`{"a":"b"} {"c":"d"}`, &v))
}
