package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"go.dalton.dog/bubbleup"
	"golang.design/x/clipboard"

	"github.com/novachat/novachat/internal/debug"
	"github.com/novachat/novachat/internal/history"
	"github.com/novachat/novachat/internal/markdown"
	"github.com/novachat/novachat/session"
)

const (
	// How often the conversation re-renders while idle, so messages the
	// scheduler inserts show up without a keypress.
	refreshInterval = 500 * time.Millisecond

	// Typing animation cadence.
	revealInterval = 30 * time.Millisecond
	revealStep     = 3
)

var log = debug.GetLogger()

type (
	sendResultMsg struct {
		message *session.Message
		err     error
	}
	revealTickMsg  struct{}
	refreshTickMsg struct{}
)

// Model is the Bubble Tea model for a chat session.
type Model struct {
	ctx  context.Context
	sess *session.Store

	// UI components
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *markdown.Renderer
	alert    bubbleup.AlertModel

	// UI state
	width    int
	height   int
	ready    bool
	sending  bool
	quitting bool
	notice   string
	err      error

	// Typing animation state
	revealID      string
	revealContent []rune
	revealCount   int

	// Input history
	history           *history.History
	historyNavigating bool

	// Index of the message being navigated, -1 when none.
	navigationMessageIndex int

	clipboardOK bool
}

// New creates a chat session model over an already-loaded session store.
func New(ctx context.Context, sess *session.Store) (*Model, error) {
	ta := textarea.New()
	ta.Placeholder = "Type your message... (Ctrl+J to send, Alt+P/N for history, Ctrl+C to quit)"
	ta.Focus()
	ta.CharLimit = 0
	ta.SetWidth(80)
	ta.SetHeight(minTextareaHeight)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(true)
	ta.Prompt = ""

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	renderer, err := markdown.NewRenderer(80)
	if err != nil {
		return nil, err
	}

	alert := bubbleup.NewAlertModel(25, true, 1)

	return &Model{
		ctx:                    ctx,
		sess:                   sess,
		textarea:               ta,
		spinner:                sp,
		renderer:               renderer,
		alert:                  *alert,
		history:                history.New(),
		navigationMessageIndex: -1,
		clipboardOK:            clipboard.Init() == nil,
	}, nil
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.alert.Init(),
		refreshTick(),
	)
}

func refreshTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

func revealTick() tea.Cmd {
	return tea.Tick(revealInterval, func(time.Time) tea.Msg { return revealTickMsg{} })
}

// Run runs the full-screen chat over the given session until the user quits.
func Run(ctx context.Context, sess *session.Store) error {
	m, err := New(ctx, sess)
	if err != nil {
		return err
	}
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		return errors.Wrap(err, "running chat")
	}
	return nil
}
