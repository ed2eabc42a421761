// Package markdown turns user-authored Markdown into report HTML and can
// inline local media images as data URIs so HTML reports are self-contained.
package markdown

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	nethtml "golang.org/x/net/html"
)

const DefaultMaxEmbedBytes = 10 << 20

var (
	errTraversal = errors.New("path escapes media root")
	errTooLarge  = errors.New("file exceeds embed limit")
)

var extMIME = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".ico":  "image/x-icon",
}

type Options struct {
	MediaRoot     string
	MediaURL      string // URL prefix of media files, e.g. "/media/"
	MaxEmbedBytes int64
	Logger        *slog.Logger
}

type Renderer struct {
	md   goldmark.Markdown
	opts Options
	log  *slog.Logger
}

func New(opts Options) *Renderer {
	if opts.MaxEmbedBytes <= 0 {
		opts.MaxEmbedBytes = DefaultMaxEmbedBytes
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.MediaRoot != "" {
		if abs, err := filepath.Abs(opts.MediaRoot); err == nil {
			opts.MediaRoot = abs
		}
		if real, err := filepath.EvalSymlinks(opts.MediaRoot); err == nil {
			opts.MediaRoot = real
		}
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
	)

	return &Renderer{md: md, opts: opts, log: log.With("component", "markdown")}
}

// Render converts text to HTML. Raw HTML in the source is not passed through.
// It never fails: a conversion error yields the escaped source.
func (r *Renderer) Render(text string, embedImages bool) string {
	if text == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		r.log.Warn("markdown conversion failed", "error", err)
		return "<p>" + html.EscapeString(text) + "</p>"
	}

	out := buf.String()
	if embedImages {
		out = r.EmbedImages(out)
	}
	return out
}

// EmbedImages rewrites local <img src> references to base64 data URIs.
// Everything except the src attributes of rewritten images is copied verbatim.
func (r *Renderer) EmbedImages(doc string) string {
	if !strings.Contains(doc, "<img") {
		return doc
	}

	var out strings.Builder
	out.Grow(len(doc))

	z := nethtml.NewTokenizer(strings.NewReader(doc))
	for {
		tt := z.Next()
		if tt == nethtml.ErrorToken {
			if !errors.Is(z.Err(), io.EOF) {
				r.log.Warn("image embedding aborted", "error", z.Err())
				return doc
			}
			return out.String()
		}

		raw := z.Raw()
		if tt != nethtml.StartTagToken && tt != nethtml.SelfClosingTagToken {
			out.Write(raw)
			continue
		}

		// Token lowercases names in the buffer in place
		saved := string(raw)
		tok := z.Token()
		if tok.Data != "img" || !r.rewriteSrc(&tok) {
			out.WriteString(saved)
			continue
		}
		out.WriteString(tok.String())
	}
}

func (r *Renderer) rewriteSrc(tok *nethtml.Token) bool {
	for i, a := range tok.Attr {
		if a.Namespace != "" || a.Key != "src" {
			continue
		}
		uri, ok := r.dataURI(a.Val)
		if !ok {
			return false
		}
		tok.Attr[i].Val = uri
		return true
	}
	return false
}

func (r *Renderer) dataURI(src string) (string, bool) {
	rel, ok := r.localPath(src)
	if !ok {
		return "", false
	}
	if r.opts.MediaRoot == "" {
		return "", false
	}

	data, path, err := r.readMedia(rel)
	if err != nil {
		r.log.Warn("image not embedded", "src", src, "error", err)
		return "", false
	}

	return "data:" + detectMIME(data, path) + ";base64," + base64.StdEncoding.EncodeToString(data), true
}

// localPath returns the media-relative path for src, or false when src is
// remote, already inline, or not a plain path.
func (r *Renderer) localPath(src string) (string, bool) {
	src = strings.TrimSpace(src)
	if src == "" || strings.HasPrefix(strings.ToLower(src), "data:") {
		return "", false
	}

	u, err := url.Parse(src)
	if err != nil || u.Scheme != "" || u.Host != "" || strings.HasPrefix(src, "//") {
		return "", false
	}

	p := u.Path
	if prefix := r.opts.MediaURL; prefix != "" && prefix != "/" && strings.HasPrefix(p, prefix) {
		p = strings.TrimPrefix(p, prefix)
	}
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return "", false
	}
	return p, true
}

func (r *Renderer) readMedia(rel string) ([]byte, string, error) {
	for _, seg := range strings.Split(rel, "/") {
		if seg == ".." {
			return nil, "", errTraversal
		}
	}

	root := r.opts.MediaRoot
	full := filepath.Join(root, filepath.FromSlash(rel))
	if !within(root, full) {
		return nil, "", errTraversal
	}

	// symlinks are followed only while the target stays under the root
	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		return nil, "", err
	}
	if !within(root, resolved) {
		return nil, "", errTraversal
	}
	full = resolved

	info, err := os.Stat(full)
	if err != nil {
		return nil, "", err
	}
	if info.IsDir() {
		return nil, "", fmt.Errorf("%s is a directory", rel)
	}
	if info.Size() > r.opts.MaxEmbedBytes {
		return nil, "", errTooLarge
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, "", err
	}
	return data, full, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func detectMIME(data []byte, path string) string {
	if m := mimetype.Detect(data); strings.HasPrefix(m.String(), "image/") {
		return m.String()
	}
	if m, ok := extMIME[strings.ToLower(filepath.Ext(path))]; ok {
		return m
	}
	return "image/png"
}
