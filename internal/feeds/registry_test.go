package feeds

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	registry := DefaultRegistry()
	require.NotEmpty(t, registry)

	seen := make(map[string]bool)
	for _, fd := range registry {
		assert.NotEmpty(t, fd.Name)
		assert.NotEmpty(t, fd.URL)
		assert.NotEmpty(t, fd.Category)
		assert.NotEmpty(t, fd.Provider)
		assert.False(t, seen[fd.Name], "duplicate feed name %q", fd.Name)
		seen[fd.Name] = true
	}
}

func TestLoadCSV(t *testing.T) {
	writeCSV := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "feeds.csv")
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	t.Run("valid file", func(t *testing.T) {
		path := writeCSV(t, "name,url,category,provider\n"+
			"Feed One,https://one.example/feed,scholarship,one.example\n"+
			"Feed Two,https://two.example/feed,internship,two.example\n")

		descriptors, err := LoadCSV(path)
		require.NoError(t, err)
		require.Len(t, descriptors, 2)
		assert.Equal(t, "Feed One", descriptors[0].Name)
		assert.Equal(t, "https://two.example/feed", descriptors[1].URL)
		assert.Equal(t, "internship", descriptors[1].Category)
	})

	t.Run("rows missing name or url are skipped", func(t *testing.T) {
		path := writeCSV(t, "name,url,category,provider\n"+
			",https://one.example/feed,scholarship,one.example\n"+
			"Feed Two,https://two.example/feed,internship,two.example\n")

		descriptors, err := LoadCSV(path)
		require.NoError(t, err)
		require.Len(t, descriptors, 1)
		assert.Equal(t, "Feed Two", descriptors[0].Name)
	})

	t.Run("reordered header columns", func(t *testing.T) {
		path := writeCSV(t, "provider,category,url,name\n"+
			"one.example,scholarship,https://one.example/feed,Feed One\n")

		descriptors, err := LoadCSV(path)
		require.NoError(t, err)
		require.Len(t, descriptors, 1)
		assert.Equal(t, "Feed One", descriptors[0].Name)
		assert.Equal(t, "one.example", descriptors[0].Provider)
	})

	t.Run("missing column", func(t *testing.T) {
		path := writeCSV(t, "name,url\nFeed,https://one.example/feed\n")
		_, err := LoadCSV(path)
		require.Error(t, err)
	})

	t.Run("no usable rows", func(t *testing.T) {
		path := writeCSV(t, "name,url,category,provider\n")
		_, err := LoadCSV(path)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCSV(filepath.Join(t.TempDir(), "absent.csv"))
		require.Error(t, err)
	})
}
