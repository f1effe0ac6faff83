package server

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// limitInitializer accepts a genesis only if "limit" is below 10.
type limitInitializer struct{}

func (limitInitializer) FromGenesis(opts swapchain.Options, db swapchain.KVStore) error {
	var limit int
	if err := opts.ReadOptions("limit", &limit); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	if limit >= 10 {
		return errors.Wrapf(errors.ErrInvalidAmount, "limit %d", limit)
	}
	return db.Set([]byte("limit"), []byte{byte(limit)})
}

func TestValidateGenesis(t *testing.T) {
	home, cleanup := tempHome(t)
	defer cleanup()

	write := func(name, content string) string {
		path := filepath.Join(home, name)
		require.NoError(t, ioutil.WriteFile(path, []byte(content), 0600))
		return path
	}
	good := write("good.json", `{"chain_id": "test-chain", "app_state": {"limit": 3}}`)
	bad := write("bad.json", `{"app_state": {"limit": 30}}`)
	broken := write("broken.json", `{"app_state": `)

	assert.NoError(t, ValidateGenesis(limitInitializer{}, []string{good}))

	err := ValidateGenesis(limitInitializer{}, []string{good, bad})
	assert.True(t, errors.ErrInvalidAmount.Is(err), "%+v", err)

	err = ValidateGenesis(limitInitializer{}, []string{broken})
	assert.True(t, errors.ErrInvalidInput.Is(err), "%+v", err)

	err = ValidateGenesis(limitInitializer{}, []string{filepath.Join(home, "missing.json")})
	assert.True(t, errors.ErrDatabase.Is(err), "%+v", err)

	err = ValidateGenesis(limitInitializer{}, nil)
	assert.True(t, errors.ErrInvalidInput.Is(err), "%+v", err)
}
