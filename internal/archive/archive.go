// Package archive keeps a per-case copy of everything a test case generated.
//
// Each case gets a directory named after its zero-padded id under the results
// directory:
//
//	results/
//	  00001/
//	    testCase.json   case options, canonical JSON
//	    my-module.js    rendered sources
//	    my-module.d.ts
//	    user.ts
//	    user.js         compiler output, only when compilation succeeded
//	    error.log       only for failed cases
//
// The working directory is overwritten by every case, so the archive is the
// only place where a past case can be inspected.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// File names inside a case directory.
const (
	CaseFile  = "testCase.json"
	ErrorFile = "error.log"
)

// Dir is the archive directory of one case.
type Dir struct {
	Path string
}

// New returns the archive directory for case id under root.
func New(root string, id int) *Dir {
	return &Dir{Path: filepath.Join(root, CaseDirName(id))}
}

// CaseDirName returns the directory name for id, zero-padded to five digits.
func CaseDirName(id int) string {
	return fmt.Sprintf("%05d", id)
}

// Prepare creates the directory.
func (d *Dir) Prepare() error {
	if err := os.MkdirAll(d.Path, 0755); err != nil {
		return fmt.Errorf("failed to create case directory: %w", err)
	}
	return nil
}

// WriteCase writes fields as indented canonical JSON to testCase.json.
func (d *Dir) WriteCase(fields map[string]any) error {
	data, err := MarshalCanonicalIndent(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal test case: %w", err)
	}
	return d.write(CaseFile, data)
}

// WriteError writes the failure text to error.log.
func (d *Dir) WriteError(text string) error {
	return d.write(ErrorFile, []byte(text))
}

// CopyIn copies src into the directory under its base name.
func (d *Dir) CopyIn(src string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	dst := filepath.Join(d.Path, filepath.Base(src))
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dst, err)
	}
	return nil
}

func (d *Dir) write(name string, data []byte) error {
	path := filepath.Join(d.Path, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
