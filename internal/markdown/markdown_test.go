package markdown

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func newMedia(t *testing.T) (*Renderer, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "uploads"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "uploads", "shot.png"), pngBytes, 0o644))
	return New(Options{MediaRoot: root, MediaURL: "/media/"}), root
}

func TestRenderEmpty(t *testing.T) {
	r := New(Options{})
	assert.Equal(t, "", r.Render("", true))
	assert.Equal(t, "", r.Render("", false))
}

func TestRenderFeatures(t *testing.T) {
	r := New(Options{})

	out := r.Render("# Executive Summary\n\nline one\nline two\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n```go\nx := 1\n```\n", false)

	assert.Contains(t, out, `<h1 id="executive-summary">Executive Summary</h1>`)
	assert.Contains(t, out, "line one<br")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, `<code class="language-go">`)
}

func TestRenderDropsRawHTML(t *testing.T) {
	r := New(Options{})
	out := r.Render("hello <script>alert(1)</script>", false)
	assert.NotContains(t, out, "<script>")
}

func TestEmbedLocalImages(t *testing.T) {
	r, _ := newMedia(t)
	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)

	for _, src := range []string{"/media/uploads/shot.png", "uploads/shot.png", "/uploads/shot.png"} {
		out := r.Render("![shot]("+src+")", true)
		assert.Contains(t, out, `src="`+want+`"`, src)
		assert.Contains(t, out, `alt="shot"`, src)
	}
}

func TestEmbedDisabledKeepsPath(t *testing.T) {
	r, _ := newMedia(t)
	out := r.Render("![shot](/media/uploads/shot.png)", false)
	assert.Contains(t, out, `src="/media/uploads/shot.png"`)
}

func TestEmbedSkipsRemoteAndInline(t *testing.T) {
	r, _ := newMedia(t)

	doc := `<p><img src="https://example.com/a.png" alt="a"><img src="//cdn.example.com/b.png"><img src="data:image/gif;base64,R0lGOD"></p>`
	assert.Equal(t, doc, r.EmbedImages(doc))
}

func TestEmbedMissingFileKeepsReference(t *testing.T) {
	r, _ := newMedia(t)
	out := r.Render("![x](/media/uploads/nope.png)", true)
	assert.Contains(t, out, `src="/media/uploads/nope.png"`)
}

func TestEmbedRejectsTraversal(t *testing.T) {
	r, root := newMedia(t)
	outside := filepath.Join(filepath.Dir(root), "secret.png")
	require.NoError(t, os.WriteFile(outside, pngBytes, 0o644))
	t.Cleanup(func() { _ = os.Remove(outside) })

	secret := filepath.Base(outside)
	for _, src := range []string{
		"../" + secret,
		"/media/../" + secret,
		"uploads/../../" + secret,
		"%2e%2e/" + secret,
	} {
		doc := `<img src="` + src + `">`
		assert.Equal(t, doc, r.EmbedImages(doc), src)
	}
}

func TestEmbedRejectsSymlinkOutsideRoot(t *testing.T) {
	r, root := newMedia(t)
	outside := filepath.Join(t.TempDir(), "secret.png")
	require.NoError(t, os.WriteFile(outside, []byte("SECRET"), 0o644))

	if err := os.Symlink(outside, filepath.Join(root, "link.png")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(root, "uploads"), filepath.Join(root, "alias")))

	out := r.Render("![x](link.png)", true)
	assert.Contains(t, out, `src="link.png"`)
	assert.NotContains(t, out, base64.StdEncoding.EncodeToString([]byte("SECRET")))

	// a link that stays inside the root still embeds
	out = r.Render("![x](/media/alias/shot.png)", true)
	assert.Contains(t, out, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(pngBytes))
}

func TestEmbedSizeLimit(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "big.png"), pngBytes, 0o644))

	r := New(Options{MediaRoot: root, MaxEmbedBytes: 4})
	doc := `<img src="big.png">`
	assert.Equal(t, doc, r.EmbedImages(doc))
}

func TestEmbedNoImagesIsIdentity(t *testing.T) {
	r, _ := newMedia(t)
	doc := "<p>Plain <em>text</em> &amp; entities</p>\n"
	assert.Equal(t, doc, r.EmbedImages(doc))
}

func TestEmbedPreservesSurroundingMarkup(t *testing.T) {
	r, _ := newMedia(t)
	doc := `<p>Before <b>bold</b></p><IMG SRC="uploads/shot.png" alt="A"/><p>After &amp; more</p>`

	out := r.EmbedImages(doc)
	assert.True(t, strings.HasPrefix(out, "<p>Before <b>bold</b></p>"))
	assert.True(t, strings.HasSuffix(out, "<p>After &amp; more</p>"))
	assert.Contains(t, out, "data:image/png;base64,")
	assert.Contains(t, out, `alt="A"`)
}

func TestDetectMIME(t *testing.T) {
	assert.Equal(t, "image/png", detectMIME(pngBytes, "x.bin"))
	assert.Equal(t, "image/jpeg", detectMIME([]byte("not really an image"), "photo.JPG"))
	assert.Equal(t, "image/png", detectMIME([]byte("plain"), "file.unknown"))
}
