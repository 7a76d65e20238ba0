// Package render turns the three source templates into the files of one case.
package render

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Alexis-ROYER/tsd-default-export/internal/matrix"
)

//go:embed templates/*.in
var embedded embed.FS

// Template file names, looked up in the templates directory.
const (
	ModuleTemplate      = "my-module.js.in"
	DeclarationTemplate = "my-module.d.ts.in"
	ConsumerTemplate    = "user.ts.in"
)

// Generated file names in the working directory.
const (
	ModuleFile      = "my-module.js"
	DeclarationFile = "my-module.d.ts"
	ConsumerFile    = "user.ts"
	CompiledFile    = "user.js"
)

// Placeholders substituted in the templates.
const (
	ExportStatement1Placeholder = "${exportDefaultStatement1}"
	ExportStatement2Placeholder = "${exportDefaultStatement2}"
	ExportStatementPlaceholder  = "${exportDefaultStatement}"
	ImportStatementPlaceholder  = "${importDefaultStatement}"
)

// Templates holds the raw template texts.
type Templates struct {
	Module      string
	Declaration string
	Consumer    string
}

// File is a rendered source file.
type File struct {
	Name    string
	Content string
}

// Default returns the embedded templates.
func Default() *Templates {
	t, err := Load("")
	if err != nil {
		// embedded files are part of the binary
		panic(err)
	}
	return t
}

// Load reads templates from dir. Files missing from dir fall back to the
// embedded defaults; an empty dir uses the defaults only.
func Load(dir string) (*Templates, error) {
	read := func(name string) (string, error) {
		if dir != "" {
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err == nil {
				return string(data), nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("failed to read template %s: %w", name, err)
			}
		}
		data, err := embedded.ReadFile("templates/" + name)
		if err != nil {
			return "", fmt.Errorf("failed to read embedded template %s: %w", name, err)
		}
		return string(data), nil
	}

	var t Templates
	var err error
	if t.Module, err = read(ModuleTemplate); err != nil {
		return nil, err
	}
	if t.Declaration, err = read(DeclarationTemplate); err != nil {
		return nil, err
	}
	if t.Consumer, err = read(ConsumerTemplate); err != nil {
		return nil, err
	}
	return &t, nil
}

// Render substitutes the statements of opts into the templates and returns
// the module, declaration and consumer files in that order.
//
// The .js export may span two lines; the first fills
// ${exportDefaultStatement1} and the second ${exportDefaultStatement2}.
// Only the first occurrence of each placeholder is replaced.
func (t *Templates) Render(opts matrix.Options) []File {
	lines := strings.Split(opts.JS, "\n")
	first, second := lines[0], ""
	if len(lines) > 1 {
		second = lines[1]
	}

	module := strings.Replace(t.Module, ExportStatement1Placeholder, first, 1)
	module = strings.Replace(module, ExportStatement2Placeholder, second, 1)

	return []File{
		{Name: ModuleFile, Content: module},
		{Name: DeclarationFile, Content: strings.Replace(t.Declaration, ExportStatementPlaceholder, opts.DTS, 1)},
		{Name: ConsumerFile, Content: strings.Replace(t.Consumer, ImportStatementPlaceholder, opts.TS, 1)},
	}
}

// WriteTo writes files into dir, creating it if needed.
func WriteTo(dir string, files []File) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	for _, f := range files {
		path := filepath.Join(dir, f.Name)
		if err := os.WriteFile(path, []byte(f.Content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}
