package files

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func relPaths(t *testing.T, root string, ts []Target) []string {
	t.Helper()
	out := make([]string, len(ts))
	for i, tg := range ts {
		rel, err := filepath.Rel(root, tg.Path)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func TestCollect_WalksAndFilters(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html", "<p>x</p>")
	writeFile(t, root, "pages/about.htm", "<p>x</p>")
	writeFile(t, root, "trees/app.yaml", "type: div")
	writeFile(t, root, "trees/skip.yml", "type: div")
	writeFile(t, root, "notes.txt", "ignored kind")
	writeFile(t, root, "node_modules/lib/index.html", "<p>x</p>")
	writeFile(t, root, "pnpm-lock.yaml", "lockfileVersion: 9")
	writeFile(t, root, "dist/app.min.html", "<p>x</p>")
	writeFile(t, root, "fixtures/a.html", "<p>x</p>")
	writeFile(t, root, ".securelogignore", "fixtures/\nskip.yml\n")

	got, err := Collect(context.Background(), []string{root}, Options{DefaultExcludes: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html", "pages/about.htm", "trees/app.yaml"}, relPaths(t, root, got))
	assert.Equal(t, KindHTML, got[0].Kind)
	assert.Equal(t, KindYAML, got[2].Kind)
}

func TestCollect_Globs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/one.html", "")
	writeFile(t, root, "a/two.yaml", "")
	writeFile(t, root, "b/three.html", "")

	got, err := Collect(context.Background(), []string{root}, Options{Include: "**/*.html", Exclude: "b/**"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a/one.html"}, relPaths(t, root, got))
}

func TestCollect_ExplicitFilesAndDuplicates(t *testing.T) {
	root := t.TempDir()
	p := writeFile(t, root, "page.html", "")
	got, err := Collect(context.Background(), []string{p, root, p}, Options{Exclude: "*.html"})
	require.NoError(t, err)
	require.Len(t, got, 1, "explicit files bypass globs and are not repeated")
	assert.Equal(t, p, got[0].Path)

	txt := writeFile(t, root, "notes.txt", "")
	_, err = Collect(context.Background(), []string{txt}, Options{})
	assert.Error(t, err)

	_, err = Collect(context.Background(), []string{filepath.Join(root, "missing.html")}, Options{})
	assert.Error(t, err)
}

func TestCollect_MaxBytes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.html", "0123456789")
	writeFile(t, root, "small.html", "0")
	got, err := Collect(context.Background(), []string{root}, Options{MaxBytes: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"small.html"}, relPaths(t, root, got))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindHTML, KindOf("A.HTML"))
	assert.Equal(t, KindYAML, KindOf("x.yml"))
	assert.Equal(t, KindUnknown, KindOf("x.json"))
	assert.Equal(t, "yaml", KindYAML.String())
}

func TestLooksBinary(t *testing.T) {
	assert.True(t, LooksBinary([]byte{'a', 0, 'b'}))
	assert.False(t, LooksBinary([]byte("<html></html>")))
}
