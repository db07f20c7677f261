package derrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	base := New(CodeWorkflowPolicy, "case already closed")

	assert.True(t, HasCode(base, CodeWorkflowPolicy))
	assert.False(t, HasCode(base, CodeValidation))

	wrapped := Wrap(base, CodeInternal, "transition failed")
	assert.True(t, HasCode(wrapped, CodeInternal))
	assert.True(t, HasCode(wrapped, CodeWorkflowPolicy))

	plain := errors.New("boom")
	assert.False(t, HasCode(plain, CodeInternal))
	assert.True(t, HasCode(fmt.Errorf("outer: %w", base), CodeWorkflowPolicy))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(New(CodeNotFound, "missing")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:     http.StatusBadRequest,
		CodeUnauthorized:   http.StatusUnauthorized,
		CodeRolePolicy:     http.StatusForbidden,
		CodeNotFound:       http.StatusNotFound,
		CodeWorkflowPolicy: http.StatusConflict,
		CodeConflict:       http.StatusConflict,
		CodeGateway:        http.StatusBadGateway,
		CodeInternal:       http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}
