package apperr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chainwatch/price-compare/internal/store"
)

func TestClassifyPassesThroughAppError(t *testing.T) {
	original := InvalidInput("bad_input", "nope")
	got := Classify(original)
	assert.Same(t, original, got)
}

func TestClassifyMapsStoreNotFoundError(t *testing.T) {
	err := &store.NotFoundError{Resource: "saved cart"}
	got := Classify(err)
	assert.Equal(t, KindNotFound, got.Kind)
	assert.Equal(t, http.StatusNotFound, got.Kind.HTTPStatus())
}

func TestClassifyDefaultsToInternal(t *testing.T) {
	got := Classify(errors.New("boom"))
	assert.Equal(t, KindInternal, got.Kind)
	assert.Equal(t, http.StatusInternalServerError, got.Kind.HTTPStatus())
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	wrapped := Internal(inner)
	assert.Equal(t, inner, errors.Unwrap(wrapped))
}

func TestKindHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, KindInvalidInput.HTTPStatus())
	assert.Equal(t, http.StatusNotFound, KindNotFound.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, KindInternal.HTTPStatus())
}
