// Package matrix enumerates the option axes of the compatibility harness and
// expands them into test case tuples.
//
// A Matrix holds seven ordered axes. Every combination of one value per axis
// is a case; Tuples returns them in nested order with the .js export style as
// the outermost loop and the Node.js options as the innermost one, so the
// same matrix always yields the same ids.
//
// An empty string in an optional axis (tsc flags, Node.js options) means the
// option is not passed at all.
package matrix

import (
	"errors"
	"fmt"
	"strings"
)

// Options is one fully specified combination of axis values.
type Options struct {
	JS               string `json:"js"`
	DTS              string `json:"dts"`
	TS               string `json:"ts"`
	TscTarget        string `json:"tsc-target"`
	TscModuleInterop string `json:"tsc-module-interop"`
	TscModule        string `json:"tsc-module"`
	NodeOpts         string `json:"node-opts"`
}

// Matrix holds the ordered values of every axis.
type Matrix struct {
	JSExports   []string `yaml:"js" json:"js"`
	DTSExports  []string `yaml:"dts" json:"dts"`
	TSImports   []string `yaml:"ts" json:"ts"`
	TscTargets  []string `yaml:"tsc_target" json:"tsc_target"`
	TscInterop  []string `yaml:"tsc_module_interop" json:"tsc_module_interop"`
	TscModules  []string `yaml:"tsc_module" json:"tsc_module"`
	NodeOptions []string `yaml:"node_opts" json:"node_opts"`
}

// Axis is a named view on one dimension of the matrix.
type Axis struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// ErrEmptyAxis is returned by Validate when an axis has no values.
var ErrEmptyAxis = errors.New("axis has no values")

// Default returns the built-in matrix.
func Default() *Matrix {
	return &Matrix{
		JSExports: []string{
			"module.exports =",
			"module.exports.default =",
			"export default",
			strings.Join([]string{"exports = module.exports =", "exports.default = module.exports;"}, "\n"),
		},
		DTSExports: []string{
			"export default",
			"export =",
		},
		TSImports: []string{
			"import MyClass from './my-module';",
			"import * as MyClass from './my-module';",
			"import MyClass = require('./my-module');",
			"const MyClass = require('./my-module');",
		},
		TscTargets: []string{
			"",
			"--target es6",    // ES2015
			"--target es2016", // ES7
			"--target es2017", // ES8
			"--target es2018", // ES9
		},
		TscInterop: []string{
			"",
			"--esModuleInterop", // __importStar and __importDefault helpers
		},
		TscModules: []string{
			"", // commonjs unless --target implies es6
			"--module commonjs",
			"--module es6",
		},
		NodeOptions: []string{
			"",
			"-r esm",
		},
	}
}

// Axes returns the axes in product order.
func (m *Matrix) Axes() []Axis {
	return []Axis{
		{Name: "js", Values: m.JSExports},
		{Name: "dts", Values: m.DTSExports},
		{Name: "ts", Values: m.TSImports},
		{Name: "tsc_target", Values: m.TscTargets},
		{Name: "tsc_module_interop", Values: m.TscInterop},
		{Name: "tsc_module", Values: m.TscModules},
		{Name: "node_opts", Values: m.NodeOptions},
	}
}

// Validate reports the first axis without values.
func (m *Matrix) Validate() error {
	for _, axis := range m.Axes() {
		if len(axis.Values) == 0 {
			return fmt.Errorf("%s: %w", axis.Name, ErrEmptyAxis)
		}
	}
	return nil
}

// Count returns the number of cases, the product of the axis lengths.
func (m *Matrix) Count() int {
	count := 1
	for _, axis := range m.Axes() {
		count *= len(axis.Values)
	}
	return count
}

// Tuples expands the cartesian product of all axes.
func (m *Matrix) Tuples() []Options {
	axes := m.Axes()
	total := m.Count()
	tuples := make([]Options, 0, total)

	idx := make([]int, len(axes))
	for n := 0; n < total; n++ {
		tuples = append(tuples, Options{
			JS:               axes[0].Values[idx[0]],
			DTS:              axes[1].Values[idx[1]],
			TS:               axes[2].Values[idx[2]],
			TscTarget:        axes[3].Values[idx[3]],
			TscModuleInterop: axes[4].Values[idx[4]],
			TscModule:        axes[5].Values[idx[5]],
			NodeOpts:         axes[6].Values[idx[6]],
		})

		// odometer: the last axis turns fastest
		for i := len(axes) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(axes[i].Values) {
				break
			}
			idx[i] = 0
		}
	}

	return tuples
}

// Describe returns a one-line shape summary such as "4 js x 2 dts x ...".
func (m *Matrix) Describe() string {
	axes := m.Axes()
	parts := make([]string, len(axes))
	for i, axis := range axes {
		parts[i] = fmt.Sprintf("%d %s", len(axis.Values), axis.Name)
	}
	return strings.Join(parts, " x ")
}
