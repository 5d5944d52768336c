package io

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/matzehuels/pardetect/pkg/errors"
	"github.com/matzehuels/pardetect/pkg/pet"
)

const jsonBundle = `{
  "units": {
    "1:1": {"type": 2, "startsAtLine": "1:5", "endsAtLine": "1:9", "childrenNodes": ["1:2"]},
    "1:2": {"type": 0, "startsAtLine": "1:6", "endsAtLine": "1:8", "localVariables": [{"name": "i", "type": "int"}]}
  },
  "dependencies": [{"sink": "1:2", "source": "1:2", "type": "RAW", "var": "sum"}],
  "loops": {"1:1": {"iterations": 100, "index_vars": ["i"]}},
  "reduction_vars": [{"loop_line": "1:5", "name": "sum", "operation": "+"}]
}`

const yamlBundle = `
units:
  "1:1":
    type: 2
    startsAtLine: "1:5"
    endsAtLine: "1:9"
    childrenNodes: ["1:2"]
  "1:2":
    type: 0
    startsAtLine: "1:6"
    endsAtLine: "1:8"
    localVariables:
      - name: i
        type: int
dependencies:
  - sink: "1:2"
    source: "1:2"
    type: RAW
    var: sum
loops:
  "1:1":
    iterations: 100
    index_vars: [i]
reduction_vars:
  - loop_line: "1:5"
    name: sum
    operation: "+"
`

const tomlBundle = `
[units."1:1"]
type = 2
startsAtLine = "1:5"
endsAtLine = "1:9"
childrenNodes = ["1:2"]

[units."1:2"]
type = 0
startsAtLine = "1:6"
endsAtLine = "1:8"
localVariables = [{name = "i", type = "int"}]

[[dependencies]]
sink = "1:2"
source = "1:2"
type = "RAW"
var = "sum"

[loops."1:1"]
iterations = 100
index_vars = ["i"]

[[reduction_vars]]
loop_line = "1:5"
name = "sum"
operation = "+"
`

func assertBundle(t *testing.T, in *pet.Input) {
	t.Helper()
	require.Len(t, in.Units, 2)
	loop := in.Units["1:1"]
	assert.Equal(t, int(pet.KindLoop), loop.Type)
	assert.Equal(t, []string{"1:2"}, loop.ChildrenNodes)
	assert.Equal(t, []pet.Variable{{Name: "i", Type: "int"}}, in.Units["1:2"].LocalVariables)

	require.Len(t, in.Dependencies, 1)
	assert.Equal(t, pet.DependencyFact{Sink: "1:2", Source: "1:2", Type: pet.RAW, Var: "sum"}, in.Dependencies[0])

	require.Contains(t, in.Loops, "1:1")
	require.NotNil(t, in.Loops["1:1"].Iterations)
	assert.Equal(t, 100, *in.Loops["1:1"].Iterations)
	assert.Equal(t, []string{"i"}, in.Loops["1:1"].IndexVars)

	assert.Equal(t, []pet.ReductionHint{{LoopLine: "1:5", Name: "sum", Operation: "+"}}, in.ReductionVars)
}

func TestReadBundle(t *testing.T) {
	tests := []struct {
		format Format
		data   string
	}{
		{FormatJSON, jsonBundle},
		{FormatYAML, yamlBundle},
		{FormatTOML, tomlBundle},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			in, err := ReadBundle(strings.NewReader(tt.data), tt.format)
			require.NoError(t, err)
			assertBundle(t, in)

			g, err := pet.Build(in, nil)
			require.NoError(t, err)
			assert.Equal(t, 2, g.NodeCount())
		})
	}
}

func TestReadBundleErrors(t *testing.T) {
	_, err := ReadBundle(strings.NewReader("{"), FormatJSON)
	require.Error(t, err)
	assert.Equal(t, perrors.ErrCodeInvalidInput, perrors.GetCode(err))

	_, err = ReadBundle(strings.NewReader("{}"), Format("xml"))
	require.Error(t, err)
	assert.Equal(t, perrors.ErrCodeInvalidFormat, perrors.GetCode(err))
}

func TestReadBundleEmptyYAML(t *testing.T) {
	in, err := ReadBundle(strings.NewReader(""), FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, in.Units)
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"bundle.json":     FormatJSON,
		"dir/bundle.YAML": FormatYAML,
		"bundle.yml":      FormatYAML,
		"bundle.toml":     FormatTOML,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFromPath("Data.xml")
	assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidFormat))
}

func TestWriteBundleReadable(t *testing.T) {
	in, err := ReadBundle(strings.NewReader(jsonBundle), FormatJSON)
	require.NoError(t, err)

	for _, format := range []Format{FormatJSON, FormatYAML, FormatTOML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteBundle(in, &buf, format))
			back, err := ReadBundle(&buf, format)
			require.NoError(t, err)
			assertBundle(t, back)
		})
	}
}

func TestImportExportBundle(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.yaml")
	require.NoError(t, os.WriteFile(src, []byte(yamlBundle), 0o644))

	in, err := ImportBundle(src)
	require.NoError(t, err)
	assertBundle(t, in)

	dst := filepath.Join(dir, "out.toml")
	require.NoError(t, ExportBundle(in, dst))
	back, err := ImportBundle(dst)
	require.NoError(t, err)
	assertBundle(t, back)

	_, err = ImportBundle(filepath.Join(dir, "missing.json"))
	assert.Equal(t, perrors.ErrCodeFileNotFound, perrors.GetCode(err))
}
