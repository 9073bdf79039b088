package archive

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sturgeonlabs/caviarwatch/internal/model"
)

func TestObjectNameIsDatePartitioned(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	name := ObjectName("pages", "https://shop.test/products/osetra", at)
	require.True(t, strings.HasPrefix(name, "pages/2026-08-30/"))
	require.True(t, strings.HasSuffix(name, ".html"))

	same := ObjectName("pages", "https://shop.test/products/osetra", at)
	require.Equal(t, name, same)

	other := ObjectName("pages", "https://shop.test/products/kaluga", at)
	require.NotEqual(t, name, other)
}

func TestLocalSavePage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sink, err := NewLocal(dir, "pages")
	require.NoError(t, err)

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	page := model.Page{URL: "https://shop.test/products/osetra", Body: []byte("<html>osetra</html>")}
	require.NoError(t, sink.SavePage(context.Background(), page, at))

	matches, err := filepath.Glob(filepath.Join(dir, "pages", "2026-08-30", "*.html"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	require.Equal(t, page.Body, data)
}

func TestNewLocalCreatesMissingDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "archive")
	_, err := NewLocal(dir, "pages")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestNewLocalRejectsEmptyDir(t *testing.T) {
	t.Parallel()

	_, err := NewLocal("  ", "pages")
	require.Error(t, err)
}
