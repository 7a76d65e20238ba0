package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alexis-ROYER/tsd-default-export/internal/matrix"
)

func TestRenderGolden(t *testing.T) {
	tests := []struct {
		name string
		opts matrix.Options
	}{
		{
			name: "baseline",
			opts: matrix.Options{
				JS:  "export default",
				DTS: "export default",
				TS:  "import MyClass from './my-module';",
			},
		},
		{
			name: "commonjs",
			opts: matrix.Options{
				JS:  "exports = module.exports =\nexports.default = module.exports;",
				DTS: "export =",
				TS:  "import MyClass = require('./my-module');",
			},
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := Default().Render(tt.opts)
			require.Len(t, files, 3)
			assert.Equal(t, ModuleFile, files[0].Name)
			assert.Equal(t, DeclarationFile, files[1].Name)
			assert.Equal(t, ConsumerFile, files[2].Name)

			g.Assert(t, tt.name+"_module", []byte(files[0].Content))
			g.Assert(t, tt.name+"_declaration", []byte(files[1].Content))
			g.Assert(t, tt.name+"_consumer", []byte(files[2].Content))
		})
	}
}

func TestRenderReplacesFirstOccurrenceOnly(t *testing.T) {
	tpl := &Templates{
		Module:      "${exportDefaultStatement1} A; ${exportDefaultStatement1}",
		Declaration: "${exportDefaultStatement} A; ${exportDefaultStatement}",
		Consumer:    "${importDefaultStatement}",
	}
	files := tpl.Render(matrix.Options{JS: "module.exports =", DTS: "export ="})

	assert.Equal(t, "module.exports = A; ${exportDefaultStatement1}", files[0].Content)
	assert.Equal(t, "export = A; ${exportDefaultStatement}", files[1].Content)
	assert.Equal(t, "", files[2].Content)
}

func TestLoadOverridesPerFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConsumerTemplate), []byte("custom ${importDefaultStatement}\n"), 0644))

	tpl, err := Load(dir)
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Module, tpl.Module)
	assert.Equal(t, def.Declaration, tpl.Declaration)
	assert.Equal(t, "custom ${importDefaultStatement}\n", tpl.Consumer)
}

func TestWriteTo(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dist")
	files := Default().Render(matrix.Options{JS: "export default", DTS: "export default", TS: "import MyClass from './my-module';"})

	require.NoError(t, WriteTo(dir, files))

	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(dir, f.Name))
		require.NoError(t, err)
		assert.Equal(t, f.Content, string(data))
	}
}
