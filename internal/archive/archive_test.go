package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "a<b>&c", `"a<b>&c"`},
		{"int", 42, `42`},
		{"bool", true, `true`},
		{"sorted keys", map[string]any{"b": 1, "a": 2, "tsc-target": "x"}, `{"a":2,"b":1,"tsc-target":"x"}`},
		{"nested", map[string]any{"z": []any{"x", 1}, "id": 1}, `{"id":1,"z":["x",1]}`},
		{"string slice", []string{"a", "b"}, `["a","b"]`},
		// e + combining acute normalises to a single code point
		{"nfc", "e\u0301", "\"\u00e9\""},
		{"newline escaped", "a\nb", `"a\nb"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonicalRejects(t *testing.T) {
	for _, in := range []any{nil, 1.5, map[string]any{"x": nil}, struct{}{}} {
		_, err := MarshalCanonical(in)
		assert.Error(t, err, "input %#v", in)
	}
}

func TestMarshalCanonicalUTF16Order(t *testing.T) {
	// U+FF61 sorts before U+1F600 in UTF-8 but after it in UTF-16
	got, err := MarshalCanonical(map[string]any{"\U0001F600": 1, "\uff61": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":1,\"\uff61\":2}", string(got))
}

func TestMarshalCanonicalIndent(t *testing.T) {
	got, err := MarshalCanonicalIndent(map[string]any{"js": "export default", "id": 7})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"id\": 7,\n  \"js\": \"export default\"\n}\n", string(got))
}

func TestCaseDirName(t *testing.T) {
	assert.Equal(t, "00001", CaseDirName(1))
	assert.Equal(t, "01920", CaseDirName(1920))
	assert.Equal(t, "123456", CaseDirName(123456))
}

func TestDirLifecycle(t *testing.T) {
	root := t.TempDir()
	d := New(root, 12)
	assert.Equal(t, filepath.Join(root, "00012"), d.Path)

	require.NoError(t, d.Prepare())
	require.NoError(t, d.WriteCase(map[string]any{"id": 12, "dts": "export ="}))
	require.NoError(t, d.WriteError("Compilation failure: status=2"))

	src := filepath.Join(t.TempDir(), "user.ts")
	require.NoError(t, os.WriteFile(src, []byte("import x from './y';\n"), 0644))
	require.NoError(t, d.CopyIn(src))

	data, err := os.ReadFile(filepath.Join(d.Path, CaseFile))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"dts\": \"export =\",\n  \"id\": 12\n}\n", string(data))

	data, err = os.ReadFile(filepath.Join(d.Path, ErrorFile))
	require.NoError(t, err)
	assert.Equal(t, "Compilation failure: status=2", string(data))

	data, err = os.ReadFile(filepath.Join(d.Path, "user.ts"))
	require.NoError(t, err)
	assert.Equal(t, "import x from './y';\n", string(data))
}

func TestCopyInMissingSource(t *testing.T) {
	d := New(t.TempDir(), 1)
	require.NoError(t, d.Prepare())

	err := d.CopyIn(filepath.Join(t.TempDir(), "user.js"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open")
}
