// Package prompts turns a frame's parameter bag into generation prompt
// text.
//
// Embedded .tmpl files in code are the source of truth for the built-in
// styles. A frame selects one through its "style" parameter; every other
// parameter is available to the template, and anything the template does
// not consume is appended as a trailing modifier list so no direction the
// user typed gets silently dropped.
package prompts

// Style is a registered prompt template.
type Style struct {
	Key         string   `json:"key"`
	Text        string   `json:"text"`
	Description string   `json:"description,omitempty"`
	Variables   []string `json:"variables,omitempty"`
	Hash        string   `json:"hash,omitempty"`
}

// BuiltPrompt is the result of rendering a style against frame params.
type BuiltPrompt struct {
	Style     string   `json:"style"`
	Text      string   `json:"text"`
	Variables []string `json:"variables,omitempty"`
	// Fallback is true when the requested style was unknown and the
	// generic template was used instead.
	Fallback bool `json:"fallback,omitempty"`
}
