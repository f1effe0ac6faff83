package commands

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
)

// Example will be written out to a file, .json and .bin
// Filename should have no path and no extension
type Example struct {
	Filename string
	Obj      swapchain.Marshaller
}

// TestGenCmd writes the binary and json encodings of the examples, so
// that clients in other languages can test against them.
func TestGenCmd(examples []Example, args []string) error {
	outdir := "testdata"
	if len(args) > 0 {
		outdir = args[0]
	}
	if err := os.MkdirAll(outdir, 0755); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}

	for _, ex := range examples {
		js, err := json.MarshalIndent(ex.Obj, "", "  ")
		if err != nil {
			return errors.Wrapf(errors.ErrInvalidInput, "%s: %s", ex.Filename, err)
		}
		if err := write(filepath.Join(outdir, ex.Filename+".json"), js); err != nil {
			return err
		}

		bin, err := ex.Obj.Marshal()
		if err != nil {
			return errors.Wrap(err, ex.Filename)
		}
		if err := write(filepath.Join(outdir, ex.Filename+".bin"), bin); err != nil {
			return err
		}
	}
	return nil
}

func write(path string, data []byte) error {
	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}
