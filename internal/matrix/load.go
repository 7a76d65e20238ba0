package matrix

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Load reads a matrix from a YAML (.yaml, .yml) or CUE (.cue) file.
//
// In YAML files an unset option may be written as null or "". CUE files are
// unified with the #Matrix definition, which is closed and requires at least
// one value per axis; unset options are written as "".
func Load(path string) (*Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read matrix file: %w", err)
	}

	var m *Matrix
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		m, err = parseYAML(data)
	case ".cue":
		m, err = parseCUE(path, data)
	default:
		return nil, fmt.Errorf("unsupported matrix file extension %q (want .yaml, .yml or .cue)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// yamlAxis decodes a YAML sequence of option values. A null item is kept
// as "" so that it still counts as one value of the axis.
type yamlAxis []string

func (a *yamlAxis) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: axis must be a list", node.Line)
	}
	values := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind == yaml.ScalarNode && item.ShortTag() == "!!null" {
			values = append(values, "")
			continue
		}
		var v string
		if err := item.Decode(&v); err != nil {
			return err
		}
		values = append(values, v)
	}
	*a = values
	return nil
}

type yamlMatrix struct {
	JSExports   yamlAxis `yaml:"js"`
	DTSExports  yamlAxis `yaml:"dts"`
	TSImports   yamlAxis `yaml:"ts"`
	TscTargets  yamlAxis `yaml:"tsc_target"`
	TscInterop  yamlAxis `yaml:"tsc_module_interop"`
	TscModules  yamlAxis `yaml:"tsc_module"`
	NodeOptions yamlAxis `yaml:"node_opts"`
}

func parseYAML(data []byte) (*Matrix, error) {
	var raw yamlMatrix
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return &Matrix{
		JSExports:   raw.JSExports,
		DTSExports:  raw.DTSExports,
		TSImports:   raw.TSImports,
		TscTargets:  raw.TscTargets,
		TscInterop:  raw.TscInterop,
		TscModules:  raw.TscModules,
		NodeOptions: raw.NodeOptions,
	}, nil
}

func parseCUE(path string, data []byte) (*Matrix, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling matrix schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compiling CUE: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Matrix")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("matrix does not match schema: %w", err)
	}

	var m Matrix
	if err := unified.Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding matrix: %w", err)
	}
	return &m, nil
}

// YAML encodes the matrix in the format Load accepts.
func (m *Matrix) YAML() ([]byte, error) {
	return yaml.Marshal(m)
}
