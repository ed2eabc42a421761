package renderer

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
	"text/template"

	"vulnsphere/internal/models"
)

var templatedPartRe = regexp.MustCompile(`^word/(document|header\d*|footer\d*|footnotes|endnotes)\.xml$`)

var (
	paragraphRe = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)
	tableRowRe  = regexp.MustCompile(`(?s)<w:tr[ >].*?</w:tr>`)
	xmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	actionRe    = regexp.MustCompile(`(?s)\{\{.*?\}\}`)
	blockOnlyRe = regexp.MustCompile(`^\s*(?:` + blockTag + `\s*)+$`)
	blockTagRe  = regexp.MustCompile(blockTag)
	bareTextRe  = regexp.MustCompile(`<w:t>`)
)

var quoteReplacer = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'")

func docxError(err error) error {
	return &RenderError{Format: models.FormatDOCX, Err: err}
}

// renderDOCX merges data into the OOXML package src. Every failure is a
// RenderError: the package is either rendered completely or not at all.
func renderDOCX(src []byte, data map[string]any, funcs template.FuncMap) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(src), int64(len(src)))
	if err != nil {
		return nil, docxError(fmt.Errorf("invalid document package: %w", err))
	}

	var out bytes.Buffer
	zw := zip.NewWriter(&out)

	for _, f := range zr.File {
		body, err := readZipFile(f)
		if err != nil {
			return nil, docxError(err)
		}

		if templatedPartRe.MatchString(f.Name) {
			body, err = mergePart(f.Name, body, data, funcs)
			if err != nil {
				return nil, docxError(err)
			}
		}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: f.Modified,
		})
		if err != nil {
			return nil, docxError(err)
		}
		if _, err := w.Write(body); err != nil {
			return nil, docxError(err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, docxError(err)
	}
	return out.Bytes(), nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func mergePart(name string, body []byte, data map[string]any, funcs template.FuncMap) ([]byte, error) {
	xml, err := mergeActionRuns(string(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	xml = collapseBlocks(xml, tableRowRe)
	xml = collapseBlocks(xml, paragraphRe)
	xml = wrapOutputActions(xml)
	xml = bareTextRe.ReplaceAllString(xml, `<w:t xml:space="preserve">`)

	t, err := template.New(name).Option("missingkey=error").Funcs(funcs).Parse(xml)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// nextText returns the index of the first character at or after i that is
// not inside an XML tag, or -1.
func nextText(s string, i int) int {
	for i < len(s) {
		if s[i] != '<' {
			return i
		}
		end := strings.IndexByte(s[i:], '>')
		if end < 0 {
			return -1
		}
		i += end + 1
	}
	return -1
}

// mergeActionRuns rejoins template actions that Word split across runs.
// Markup between "{{" and "}}" is dropped and the action text is unescaped.
func mergeActionRuns(s string) (string, error) {
	var out strings.Builder
	out.Grow(len(s))

	i := 0
	for i < len(s) {
		c := s[i]
		if c == '<' {
			end := strings.IndexByte(s[i:], '>')
			if end < 0 {
				out.WriteString(s[i:])
				break
			}
			out.WriteString(s[i : i+end+1])
			i += end + 1
			continue
		}
		if c != '{' {
			out.WriteByte(c)
			i++
			continue
		}
		j := nextText(s, i+1)
		if j < 0 || s[j] != '{' {
			out.WriteByte(c)
			i++
			continue
		}

		action, next, err := collectAction(s, j+1)
		if err != nil {
			return "", err
		}
		out.WriteString("{{")
		out.WriteString(quoteReplacer.Replace(html.UnescapeString(action)))
		out.WriteString("}}")
		i = next
	}
	return out.String(), nil
}

// collectAction gathers text from i up to the closing "}}" and returns the
// action body and the index just past it.
func collectAction(s string, i int) (string, int, error) {
	var body strings.Builder
	for {
		i = nextText(s, i)
		if i < 0 {
			return "", 0, errors.New("unterminated template action")
		}
		if s[i] == '}' {
			if j := nextText(s, i+1); j >= 0 && s[j] == '}' {
				return body.String(), j + 1, nil
			}
		}
		body.WriteByte(s[i])
		i++
	}
}

// collapseBlocks replaces elements whose visible text consists only of
// block actions by those actions, so that a range over a table row repeats
// the row instead of emitting empty paragraphs.
func collapseBlocks(xml string, elem *regexp.Regexp) string {
	return elem.ReplaceAllStringFunc(xml, func(m string) string {
		text := xmlTagRe.ReplaceAllString(m, "")
		if !strings.Contains(text, "{{") || !blockOnlyRe.MatchString(text) {
			return m
		}
		return strings.Join(blockTagRe.FindAllString(text, -1), "")
	})
}

func wrapOutputActions(xml string) string {
	return actionRe.ReplaceAllStringFunc(xml, func(a string) string {
		if blockTagRe.FindString(a) == a {
			return a
		}
		inner := strings.TrimSuffix(strings.TrimPrefix(a, "{{"), "}}")
		left, right := "{{", "}}"
		if strings.HasPrefix(inner, "- ") {
			left, inner = "{{- ", inner[2:]
		}
		if strings.HasSuffix(inner, " -") {
			right, inner = " -}}", inner[:len(inner)-2]
		}
		inner = strings.TrimSpace(inner)
		if inner == "" || strings.HasPrefix(inner, "template ") {
			return a
		}
		return left + " docxText (" + inner + ") " + right
	})
}

// docxText escapes v for a w:t element and turns newlines into line breaks.
func docxText(v any) string {
	s := strings.ReplaceAll(toString(v), "\r\n", "\n")
	var b strings.Builder
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			b.WriteString(`</w:t><w:br/><w:t xml:space="preserve">`)
		}
		b.WriteString(xmlEscaper.Replace(line))
	}
	return b.String()
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")
