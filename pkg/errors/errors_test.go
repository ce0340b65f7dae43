package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataFor_KnownAndUnknownCodes(t *testing.T) {
	meta := MetadataFor(CodeConflict)
	assert.Equal(t, http.StatusConflict, meta.HTTPStatus)

	fallback := MetadataFor(Code("NO_SUCH_CODE"))
	assert.Equal(t, http.StatusInternalServerError, fallback.HTTPStatus)
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("row missing")
	err := Wrap(CodeNotFound, cause, "ticket lookup")

	require.NotNil(t, err)
	assert.Equal(t, CodeNotFound, err.Code())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "NOT_FOUND: ticket lookup", err.Error())
}

func TestAs_FindsTypedErrorInChain(t *testing.T) {
	inner := New(CodeStateConflict, "ticket already scanned")
	wrapped := fmt.Errorf("check-in: %w", inner)

	typed := As(wrapped)
	require.NotNil(t, typed)
	assert.Equal(t, CodeStateConflict, typed.Code())

	assert.Nil(t, As(errors.New("plain")))
	assert.Nil(t, As(nil))
}

func TestDump_CollectsChain(t *testing.T) {
	cause := errors.New("duplicate key value violates unique constraint")
	err := Wrap(CodeConflict, cause, "create ticket")

	d := Dump(err)
	assert.Equal(t, CodeConflict, d.Code)
	assert.Len(t, d.Chain, 2)
	assert.Contains(t, d.TopMessage, "create ticket")
}
