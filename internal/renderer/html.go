package renderer

import (
	"bytes"
	"errors"
	"html/template"
	"regexp"

	"vulnsphere/internal/models"
)

// blockTag matches actions that produce no output of their own.
const blockTag = `\{\{-?\s*(?:(?:if|else|end|range|with|define|block|break|continue)\b|/\*|\$\w+\s*:?=)(?:[^}]|\}[^}])*\}\}`

var (
	lstripBlocksRe = regexp.MustCompile(`(?m)^[ \t]+(` + blockTag + `)`)
	trimBlocksRe   = regexp.MustCompile(`(` + blockTag + `)\r?\n`)
)

// trimBlocks strips the indentation before a block action and the newline
// right after it, so control flow does not leave blank lines in the output.
func trimBlocks(src string) string {
	src = lstripBlocksRe.ReplaceAllString(src, "$1")
	return trimBlocksRe.ReplaceAllString(src, "$1")
}

func renderHTML(src []byte, data map[string]any, funcs template.FuncMap) ([]byte, error) {
	t, err := template.New("report").Funcs(funcs).Parse(trimBlocks(string(src)))
	if err != nil {
		return nil, &SyntaxError{Err: err}
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		// escaper errors surface at first execution and are structural
		var escErr *template.Error
		if errors.As(err, &escErr) {
			return nil, &SyntaxError{Err: err}
		}
		return nil, &RenderError{Format: models.FormatHTML, Err: err}
	}
	return buf.Bytes(), nil
}
