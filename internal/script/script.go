// Package script holds the session's script text and the assist transform.
package script

import "sync"

// DefaultText is the starter script a fresh session opens with.
const DefaultText = "Title: My AI Script Video\n\n" +
	"Scene 1: Introduce the topic and hook the audience with a question.\n" +
	"Scene 2: Provide key points with supporting visuals.\n" +
	"Scene 3: Summarize and add a call to action."

// assistSuggestion is the canned block the assist transform appends. Real
// text generation is delegated to an external collaborator and out of scope.
const assistSuggestion = "\n\nAI Suggestion:\n" +
	"- Add an engaging opener.\n" +
	"- Include a compelling CTA.\n" +
	"- Balance scene durations to keep pacing.\n" +
	"- Use visuals to reinforce key points."

// Editor is the session's script document.
type Editor struct {
	mu   sync.RWMutex
	text string
}

func NewEditor() *Editor {
	return &Editor{text: DefaultText}
}

func (e *Editor) Get() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.text
}

func (e *Editor) Set(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = text
}

// Assist appends the suggestion block to the current script and returns the
// result. Pure text in, text out.
func (e *Editor) Assist() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text += assistSuggestion
	return e.text
}
