package filestorage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CreatesDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "uploads")

	adapter, err := New(WithDir(dir))
	require.NoError(t, err)
	assert.Equal(t, dir, adapter.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWriteReadDelete(t *testing.T) {
	t.Parallel()

	adapter, err := New(WithDir(t.TempDir()))
	require.NoError(t, err)

	exists, err := adapter.Exists("report.pdf")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, adapter.Write("report.pdf", strings.NewReader("first")))
	require.NoError(t, adapter.Write("report.pdf", strings.NewReader("second")))

	exists, err = adapter.Exists("report.pdf")
	require.NoError(t, err)
	assert.True(t, exists)

	f, err := adapter.Read("report.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(adapter.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")

	require.NoError(t, adapter.Delete("report.pdf"))
	exists, err = adapter.Exists("report.pdf")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestWrite_StaysInDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := filepath.Join(root, "uploads")
	adapter, err := New(WithDir(dir))
	require.NoError(t, err)

	require.NoError(t, adapter.Write("../../escape.pdf", strings.NewReader("data")))

	_, err = os.Stat(filepath.Join(dir, "escape.pdf"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "escape.pdf"))
	assert.True(t, os.IsNotExist(err))
}
