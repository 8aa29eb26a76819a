package validation

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_EmptyIsNil(t *testing.T) {
	var v Error
	assert.NoError(t, v.Err())
}

func TestError_FirstMessageWins(t *testing.T) {
	var v Error
	v.Add("price", "must be greater than 0")
	v.Add("price", "ignored")
	v.Add("name", "is required")

	err := v.Err()
	require.Error(t, err)
	assert.Equal(t, "validation failed: name: is required; price: must be greater than 0", err.Error())

	var ve *Error
	require.True(t, errors.As(errors.Wrap(err, "create product"), &ve))
	assert.Len(t, ve.Fields, 2)
}
