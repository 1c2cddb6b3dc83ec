// Package template renders configuration files by substituting %NAME%
// placeholders with deployment-specific values.
//
// The engine is deliberately minimal: placeholders are matched
// left-to-right and non-overlapping over the literal template bytes,
// lookup is case-insensitive, and substituted values are never re-scanned,
// so a value containing %WORD% comes out verbatim. A placeholder with no
// mapped value fails the whole render; nothing is ever silently blanked.
package template

import (
	"os"
	"regexp"
	"strings"

	"github.com/ksyq12/webhostinit/internal/errors"
)

// placeholderRe matches %NAME% tokens whose inner text is an identifier.
var placeholderRe = regexp.MustCompile(`%[A-Za-z_][A-Za-z0-9_]*%`)

// Vars maps placeholder names to their substitution strings.
// Lookup is case-insensitive; keys are normalized on insert.
type Vars map[string]string

// NewVars creates an empty variable map.
func NewVars() Vars {
	return make(Vars)
}

// Set stores value under the normalized form of name.
func (v Vars) Set(name, value string) {
	v[strings.ToUpper(name)] = value
}

// Get looks up name case-insensitively.
func (v Vars) Get(name string) (string, bool) {
	value, ok := v[strings.ToUpper(name)]
	return value, ok
}

// Template holds loaded template text ready for rendering.
type Template struct {
	path string
	text string
}

// Load reads the template file at path fully into memory.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FileSystem("read", path, "", err)
	}
	return &Template{path: path, text: string(data)}, nil
}

// New creates a template from in-memory text.
func New(text string) *Template {
	return &Template{text: text}
}

// Render substitutes every placeholder from vars and returns the result.
// An unmapped placeholder fails the render with no partial output.
func (t *Template) Render(vars Vars) (string, error) {
	var missing string
	out := placeholderRe.ReplaceAllStringFunc(t.text, func(token string) string {
		name := token[1 : len(token)-1]
		value, ok := vars.Get(name)
		if !ok {
			if missing == "" {
				missing = name
			}
			return token
		}
		return value
	})
	if missing != "" {
		return "", errors.Template(missing)
	}
	return out, nil
}

// RenderFile renders the template and writes the full result to path.
func (t *Template) RenderFile(path string, vars Vars, perm os.FileMode) error {
	content, err := t.Render(vars)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return errors.FileSystem("write", path, "", err)
	}
	return nil
}
