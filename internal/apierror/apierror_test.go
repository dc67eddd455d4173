package apierror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIs_MatchesByKind(t *testing.T) {
	err := Wrap(KindAlreadySigned, "", nil)
	wrapped := fmt.Errorf("firmar: %w", err)

	assert.True(t, errors.Is(wrapped, ErrAlreadySigned))
	assert.False(t, errors.Is(wrapped, ErrContractNotFound))
	assert.Equal(t, "El contrato ya fue firmado", err.Message)
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(KindArtifactWriteFailure, "", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindArtifactWriteFailure, KindOf(err))
}

func TestFromError_HidesInternalWhenAsked(t *testing.T) {
	err := Wrap(KindRenderFailure, "", errors.New("fpdf: bad font"))

	hidden := FromError(err, false)
	assert.Equal(t, KindRenderFailure, hidden.Code)
	assert.Empty(t, hidden.Internal)

	shown := FromError(err, true)
	assert.Equal(t, "fpdf: bad font", shown.Internal)
}

func TestFromError_UnclassifiedIsTransactionFailure(t *testing.T) {
	out := FromError(errors.New("boom"), false)
	assert.Equal(t, KindTransactionFailure, out.Code)
	assert.Equal(t, "Error interno del servidor", out.Detail)
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindContractNotFound:        404,
		KindArtifactNotFound:        404,
		KindAlreadySigned:           409,
		KindIncompleteSignatureData: 422,
		KindUnsupportedImageFormat:  422,
		KindRenderFailure:           500,
		KindArtifactWriteFailure:    500,
		KindTransactionFailure:      500,
		"":                          500,
	}
	for k, want := range cases {
		assert.Equal(t, want, HTTPStatus(k), string(k))
	}
}
