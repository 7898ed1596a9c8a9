// Package prompt renders the small set of text templates the built-in
// advisors inject into a request — currently just the tag-mode tool-call
// system prompt. This is one of the few places agentcore reaches for the
// standard library over a pack dependency: the templates are fixed,
// first-party strings with no need for sandboxing, partial reuse across
// files, or a third-party templating DSL, so text/template's {{range}}/
// {{.Field}} syntax is already exactly as much power as the job needs.
package prompt

import (
	"bytes"
	"text/template"
)

// MustRender parses and executes a template string against data, panicking
// on error — templates here are compiled-in constants, so a parse failure
// is a programming error caught long before it reaches a user.
func MustRender(name, tmpl string, data any) string {
	t := template.Must(template.New(name).Parse(tmpl))
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		panic("prompt: rendering " + name + ": " + err.Error())
	}
	return buf.String()
}
