package renderer

import (
	"fmt"
	htmltemplate "html/template"
	"strconv"
	"strings"
	texttemplate "text/template"

	"github.com/Masterminds/sprig/v3"
)

// functions that reach the environment or the network, draw randomness or
// generate keys and certificates
var blockedFuncs = []string{
	"env", "expandenv", "getHostByName",
	"randAlphaNum", "randAlpha", "randAscii", "randNumeric", "randBytes", "randInt",
	"uuidv4", "shuffle",
	"genPrivateKey", "derivePassword", "buildCustomCert",
	"genCA", "genCAWithKey", "genSelfSignedCert", "genSelfSignedCertWithKey",
	"genSignedCert", "genSignedCertWithKey",
	"encryptAES", "decryptAES", "bcrypt", "htpasswd",
}

func htmlFuncMap(md MarkdownRenderer) htmltemplate.FuncMap {
	f := sprig.HtmlFuncMap()
	for _, name := range blockedFuncs {
		delete(f, name)
	}
	f["safeFormat"] = safeFormat
	f["safe"] = func(v any) htmltemplate.HTML { return htmltemplate.HTML(toString(v)) }
	f["markdown"] = func(v any) htmltemplate.HTML {
		return htmltemplate.HTML(md.Render(toString(v), true))
	}
	return f
}

func docxFuncMap(md MarkdownRenderer) texttemplate.FuncMap {
	f := sprig.TxtFuncMap()
	for _, name := range blockedFuncs {
		delete(f, name)
	}
	f["safeFormat"] = safeFormat
	f["docxText"] = docxText
	f["plain"] = func(v any) string { return htmlToText(toString(v)) }
	f["markdown"] = func(v any) string { return htmlToText(md.Render(toString(v), false)) }
	return f
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case htmltemplate.HTML:
		return string(t)
	}
	return fmt.Sprint(v)
}

// safeFormat applies a printf pattern and never fails: mismatched verbs are
// retried with numeric strings parsed, and otherwise the plain value is used.
func safeFormat(pattern string, value any) string {
	if out := fmt.Sprintf(pattern, value); !strings.Contains(out, "%!") {
		return out
	}

	switch t := value.(type) {
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			if out := fmt.Sprintf(pattern, n); !strings.Contains(out, "%!") {
				return out
			}
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			if out := fmt.Sprintf(pattern, f); !strings.Contains(out, "%!") {
				return out
			}
		}
	case int:
		if out := fmt.Sprintf(pattern, float64(t)); !strings.Contains(out, "%!") {
			return out
		}
	case float64:
		if t == float64(int64(t)) {
			if out := fmt.Sprintf(pattern, int64(t)); !strings.Contains(out, "%!") {
				return out
			}
		}
	}
	return toString(value)
}
