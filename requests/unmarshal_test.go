package requests

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brettbedarf/namefs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonNodes = `{
  "nodes": [
    {"type": "dir", "path": "/usr"},
    {"type": "file", "path": "/usr/bin", "uuid": "6f1c2b8e-4a0e-4c1d-9b7e-2f3a4b5c6d7e", "perms": 448},
    {"type": "symlink", "path": "/home/bin", "target": "/usr/bin"}
  ]
}`

const yamlNodes = `
nodes:
  - type: dir
    path: /usr
  - type: file
    path: /usr/bin
    uuid: 6f1c2b8e-4a0e-4c1d-9b7e-2f3a4b5c6d7e
    perms: 448
  - type: symlink
    path: /home/bin
    target: /usr/bin
`

func TestUnmarshal_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format Format
		data   string
	}{
		{JSONFormat, jsonNodes},
		{YAMLFormat, yamlNodes},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			t.Parallel()
			reqs, err := Unmarshal([]byte(tt.data), tt.format)
			require.NoError(t, err)
			require.Len(t, reqs, 3)

			assert.Equal(t, namefs.DirNodeType, reqs[0].Type)
			assert.Equal(t, "/usr", reqs[0].Path)
			assert.Equal(t, uint32(0o755), reqs[0].Perms)
			assert.NotEqual(t, uuid.Nil, reqs[0].UUID, "missing uuid gets a random one")

			assert.Equal(t, namefs.FileNodeType, reqs[1].Type)
			assert.Equal(t, uuid.MustParse("6f1c2b8e-4a0e-4c1d-9b7e-2f3a4b5c6d7e"), reqs[1].UUID)
			assert.Equal(t, uint32(0o700), reqs[1].Perms)

			assert.Equal(t, namefs.SymlinkNodeType, reqs[2].Type)
			assert.Equal(t, "/usr/bin", reqs[2].Target)
			assert.Equal(t, uint32(0o777), reqs[2].Perms)
		})
	}
}

func TestUnmarshal_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"bad json", `{"nodes": [`, "failed to unmarshal"},
		{"unknown type", `{"nodes": [{"type": "socket", "path": "/s"}]}`, "invalid node type"},
		{"missing path", `{"nodes": [{"type": "dir"}]}`, "missing path"},
		{"symlink without target", `{"nodes": [{"type": "symlink", "path": "/l"}]}`, "missing a target"},
		{"source on dir", `{"nodes": [{"type": "dir", "path": "/d", "source": {"type": "zero"}}]}`, "cannot have a source"},
		{"bad uuid", `{"nodes": [{"type": "file", "path": "/f", "uuid": "nope"}]}`, "invalid uuid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Unmarshal([]byte(tt.data), JSONFormat)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := Unmarshal([]byte(jsonNodes), Format("toml"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "nodes.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlNodes), 0o600))
	reqs, err := LoadFile(yamlPath)
	require.NoError(t, err)
	assert.Len(t, reqs, 3)

	txtPath := filepath.Join(dir, "nodes.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte(jsonNodes), 0o600))
	_, err = LoadFile(txtPath)
	assert.ErrorContains(t, err, "unknown node file extension")

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestUnmarshal_Source(t *testing.T) {
	t.Parallel()

	yamlData := `
nodes:
  - type: file
    path: /motd
    source:
      type: text
      data: hello
`
	reqs, err := Unmarshal([]byte(yamlData), YAMLFormat)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.JSONEq(t, `{"type": "text", "data": "hello"}`, string(reqs[0].Source))

	reqs, err = Unmarshal([]byte(`{"nodes": [{"type": "file", "path": "/f"}]}`), JSONFormat)
	require.NoError(t, err)
	assert.Nil(t, reqs[0].Source)
}
