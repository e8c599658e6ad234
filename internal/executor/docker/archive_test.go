package docker

import (
	"archive/tar"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("print(1)\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "input.json"), []byte("[[1],2]"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o700))

	buf, err := archiveDir(dir)
	require.NoError(t, err)

	got := map[string]string{}
	tr := tar.NewReader(buf)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		got[hdr.Name] = string(data)
		assert.EqualValues(t, 0o644, hdr.Mode, "files must be readable by the container user")
	}

	assert.Equal(t, map[string]string{"main.py": "print(1)\n", "input.json": "[[1],2]"}, got)
}

func TestArchiveDirMissing(t *testing.T) {
	_, err := archiveDir(filepath.Join(t.TempDir(), "gone"))
	assert.Error(t, err)
}
