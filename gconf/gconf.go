package gconf

import (
	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
)

// ReadStore is the part of swapchain.ReadOnlyKVStore needed to load a
// configuration.
type ReadStore interface {
	Get([]byte) ([]byte, error)
}

// Store is the part of swapchain.KVStore needed to save a configuration.
type Store interface {
	ReadStore
	Set([]byte, []byte) error
}

// Configuration is a per extension singleton kept in the state. Both the
// token and the escrow extensions store one.
type Configuration interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
	Validate() error
}

// key is namespaced so that no orm bucket can collide with it.
func key(pkg string) []byte {
	return []byte("_c:" + pkg)
}

// Save writes src as the configuration of pkg. An invalid configuration is
// never written.
func Save(db Store, pkg string, src Configuration) error {
	if err := src.Validate(); err != nil {
		return errors.Wrapf(err, "%s configuration", pkg)
	}
	raw, err := src.Marshal()
	if err != nil {
		return errors.Wrapf(err, "marshal %s configuration", pkg)
	}
	return errors.Wrapf(db.Set(key(pkg), raw), "write %s configuration", pkg)
}

// Load reads the configuration of pkg into dst. ErrNotFound is returned when
// nothing was saved.
func Load(db ReadStore, pkg string, dst Configuration) error {
	found, err := load(db, pkg, dst)
	if err != nil {
		return err
	}
	if !found {
		return errors.Wrapf(errors.ErrNotFound, "%s configuration", pkg)
	}
	return nil
}

// LoadOrDefault is Load for extensions that can run on defaults. dst is left
// untouched when nothing was saved.
func LoadOrDefault(db ReadStore, pkg string, dst Configuration) error {
	_, err := load(db, pkg, dst)
	return err
}

func load(db ReadStore, pkg string, dst Configuration) (bool, error) {
	raw, err := db.Get(key(pkg))
	if err != nil {
		return false, errors.Wrapf(err, "read %s configuration", pkg)
	}
	if raw == nil {
		return false, nil
	}
	if err := dst.Unmarshal(raw); err != nil {
		return false, errors.Wrapf(err, "unmarshal %s configuration", pkg)
	}
	return true, nil
}

// InitConfig reads opts["conf"][pkg] into conf and saves it. ErrNotFound is
// returned when the genesis has no entry for pkg.
func InitConfig(db Store, opts swapchain.Options, pkg string, conf Configuration) error {
	var all swapchain.Options
	if err := opts.ReadOptions("conf", &all); err != nil {
		return errors.Wrap(err, "read conf")
	}
	if all[pkg] == nil {
		return errors.Wrapf(errors.ErrNotFound, "no %s configuration in genesis", pkg)
	}
	if err := all.ReadOptions(pkg, conf); err != nil {
		return errors.Wrapf(err, "read %s configuration", pkg)
	}
	return Save(db, pkg, conf)
}
