package app

import (
	"testing"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/chaintest/assert"
	"github.com/iov-one/swapchain/errors"
)

func TestResultSets(t *testing.T) {
	models := []swapchain.Model{
		swapchain.Pair([]byte("escrow:a"), []byte{1, 2}),
		swapchain.Pair([]byte("escrow:b"), []byte{3}),
	}
	keys, err := ResultsFromKeys(models).Marshal()
	assert.Nil(t, err)
	values, err := ResultsFromValues(models).Marshal()
	assert.Nil(t, err)

	got, err := ParseQueryResponse(keys, values)
	assert.Nil(t, err)
	assert.Equal(t, models, got)

	empty, err := ParseQueryResponse(nil, nil)
	assert.Nil(t, err)
	assert.Equal(t, 0, len(empty))

	_, err = JoinResults(ResultsFromKeys(models), ResultsFromValues(models[:1]))
	assert.IsErr(t, errors.ErrInvalidState, err)
}
