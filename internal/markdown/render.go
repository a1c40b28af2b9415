package markdown

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer renders assistant markdown for the terminal.
type Renderer struct {
	glamour *glamour.TermRenderer
	width   int
	cache   map[string]string
}

// NewRenderer creates a new markdown renderer wrapped at the given width.
func NewRenderer(width int) (*Renderer, error) {
	gr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &Renderer{
		glamour: gr,
		width:   width,
		cache:   map[string]string{},
	}, nil
}

// SetWidth rebuilds the underlying renderer at a new wrap width and
// invalidates the cache.
func (r *Renderer) SetWidth(width int) {
	if width == r.width || width <= 0 {
		return
	}
	gr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return
	}
	r.glamour = gr
	r.width = width
	r.cache = map[string]string{}
}

// Render a markdown string. Finalized content is cached by key; pass an
// empty key for uncached rendering (e.g. mid typing animation).
func (r *Renderer) Render(key, content string) string {
	if key != "" {
		if md, ok := r.cache[key]; ok {
			return md
		}
	}
	out, err := r.glamour.Render(content)
	if err != nil {
		// Fall back to the raw content rather than dropping the message.
		out = content
	}
	out = strings.TrimRight(out, "\n")
	if key != "" {
		r.cache[key] = out
	}
	return out
}
