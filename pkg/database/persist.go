// Package database implements the scoped package database: three
// chained scope instances (project, user, system), each a JSON-backed
// store of registered sources and installation groups, persisted with
// atomic temp-file-then-rename writes and RFC 8785 canonical JSON so
// round-tripped documents are byte-equal after formatting.
package database

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gowebpki/jcs"

	ralpherrors "github.com/cperrin88/ralph/pkg/errors"
)

// canonicalJSON renders v as sorted-key, 2-space-indented JSON per the
// on-disk format invariant.
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	transformed, err := jcs.Transform(raw)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, transformed, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeAtomic serializes v to path via a temp file in the same directory,
// fsynced, then renamed over the target, so readers observe either the
// pre- or post-state.
func writeAtomic(path string, v any) error {
	data, err := canonicalJSON(v)
	if err != nil {
		return ralpherrors.Wrap(err, ralpherrors.KindLogic, "encoding "+path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "creating "+dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "creating temp file in "+dir)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "writing "+tmpPath)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "syncing "+tmpPath)
	}
	if err = tmp.Close(); err != nil {
		return ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "closing "+tmpPath)
	}

	if err = os.Rename(tmpPath, path); err != nil {
		return ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "renaming "+tmpPath+" to "+path)
	}
	return nil
}

// readJSON decodes path into v, leaving v untouched (not an error) if
// the file does not exist yet.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "reading "+path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return ralpherrors.Wrap(err, ralpherrors.KindDatabaseUnavailable, "parsing "+path)
	}
	return nil
}
