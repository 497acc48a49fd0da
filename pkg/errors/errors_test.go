package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[ErrorCode]int{
		CodeInvalidParam:       http.StatusBadRequest,
		CodeImportFailed:       http.StatusBadRequest,
		CodeTokenExpired:       http.StatusUnauthorized,
		CodeNovelNotFound:      http.StatusNotFound,
		CodeSuggestionNotFound: http.StatusNotFound,
		CodeLLMNotConfigured:   http.StatusServiceUnavailable,
		CodeLLMCallFailed:      http.StatusBadGateway,
		CodeDatabaseError:      http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, New(code, "x").HTTPStatus, "code %s", code)
	}
}

func TestWithDetailDoesNotMutatePredefined(t *testing.T) {
	e := ErrInvalidParam.WithDetail("name is required")
	assert.Equal(t, "name is required", e.Detail)
	assert.Empty(t, ErrInvalidParam.Detail)
}

func TestAsAppErrorUnwrapsChain(t *testing.T) {
	cause := stderrors.New("boom")
	wrapped := fmt.Errorf("handler: %w", Wrap(cause, CodeLLMCallFailed, "LLM call failed"))

	assert.True(t, IsAppError(wrapped))
	appErr := AsAppError(wrapped)
	assert.Equal(t, CodeLLMCallFailed, appErr.Code)
	assert.ErrorIs(t, appErr, cause)

	plain := AsAppError(cause)
	assert.Equal(t, CodeUnknown, plain.Code)
}

func TestIsMatchesCopiesByCode(t *testing.T) {
	err := fmt.Errorf("service: %w", ErrForbidden.WithDetail("not the author"))

	assert.ErrorIs(t, err, ErrForbidden)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, ErrDatabase.WithError(stderrors.New("conn reset")), ErrDatabase)
}
