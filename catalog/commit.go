package catalog

import (
	"os"
	"path/filepath"

	"github.com/wippyai/bcsv-bridge/errors"
)

// commitFile writes data to path atomically: the bytes land in a temp file
// in the destination directory and reach path only through a rename, so a
// failed export never leaves a partial file that looks valid.
func commitFile(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".bcsv-export-*")
	if err != nil {
		return errors.IO(errors.PhaseExport, "create temp file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.IO(errors.PhaseExport, "write spreadsheet", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.IO(errors.PhaseExport, "close temp file", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.IO(errors.PhaseExport, "rename into place", err)
	}
	return nil
}
