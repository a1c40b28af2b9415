package history

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	historyFileName = "novachat_input_history"
	maxHistorySize  = 1000
)

// History manages prompt input history with best-effort persistence.
type History struct {
	mu      sync.Mutex
	entries []string
	index   int    // Current position in history (-1 means new input).
	current string // Stores in-progress input while navigating history.
	path    string
}

// New creates a History instance and loads any persisted entries.
func New() *History {
	h := &History{
		index: -1,
		path:  filepath.Join(os.TempDir(), historyFileName),
	}
	h.load()
	return h
}

func (h *History) load() {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.Open(h.path)
	if err != nil {
		return // No history yet.
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := unescape(scanner.Text())
		if line != "" {
			h.entries = append(h.entries, line)
		}
	}
	if len(h.entries) > maxHistorySize {
		h.entries = h.entries[len(h.entries)-maxHistorySize:]
	}
}

func (h *History) save() {
	f, err := os.Create(h.path)
	if err != nil {
		return // History is a convenience, not a guarantee.
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, entry := range h.entries {
		w.WriteString(escape(entry) + "\n")
	}
	w.Flush()
}

// Add appends a new entry and resets navigation.
func (h *History) Add(entry string) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.index = -1
	h.current = ""
	// Skip duplicates of the last entry.
	if len(h.entries) > 0 && h.entries[len(h.entries)-1] == entry {
		return
	}
	h.entries = append(h.entries, entry)
	if len(h.entries) > maxHistorySize {
		h.entries = h.entries[len(h.entries)-maxHistorySize:]
	}
	h.save()
}

// Previous returns the previous entry, remembering the in-progress input
// so Next can restore it. Returns current input unchanged when at the top.
func (h *History) Previous(current string) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return current
	}
	if h.index == -1 {
		h.current = current
		h.index = len(h.entries) - 1
	} else if h.index > 0 {
		h.index--
	}
	return h.entries[h.index]
}

// Next returns the next entry, or the remembered in-progress input when
// navigation moves past the most recent entry.
func (h *History) Next() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.index == -1 {
		return h.current
	}
	h.index++
	if h.index >= len(h.entries) {
		h.index = -1
		return h.current
	}
	return h.entries[h.index]
}

// Navigating reports whether the user is currently browsing history.
func (h *History) Navigating() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index != -1
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	return strings.ReplaceAll(s, "\n", "\\n")
}

// unescape decodes in a single left-to-right scan; ordered ReplaceAll
// calls would mangle a literal backslash followed by an 'n'.
func unescape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
