package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.dalton.dog/bubbleup"
	"golang.design/x/clipboard"

	"github.com/novachat/novachat/gateway"
)

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Always update the alert model with every message.
	outAlert, alertCmd := m.alert.Update(msg)
	m.alert = outAlert.(bubbleup.AlertModel)
	if alertCmd != nil {
		cmds = append(cmds, alertCmd)
	}

	defer func() {
		switch msg.(type) {
		case spinner.TickMsg, cursor.BlinkMsg, tea.MouseMsg, refreshTickMsg, revealTickMsg:
		// Skip logging for ticks.
		default:
			log.Info("update completed", "msg_type", fmt.Sprintf("%T", msg))
		}
	}()

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Message navigation.
		if msg.String() == "alt+{" {
			messages := m.sess.Messages()
			if len(messages) == 0 {
				return m, nil
			}
			if m.navigationMessageIndex == -1 {
				m.navigationMessageIndex = len(messages)
			}
			if m.navigationMessageIndex > 0 {
				m.navigationMessageIndex--
				m.viewport.SetContent(m.renderMessages())
			}
			return m, nil
		}
		if msg.String() == "alt+}" {
			if m.navigationMessageIndex != -1 {
				m.navigationMessageIndex++
				if m.navigationMessageIndex >= len(m.sess.Messages()) {
					m.navigationMessageIndex = -1
					m.viewport.GotoBottom()
				}
				m.viewport.SetContent(m.renderMessages())
			}
			return m, nil
		}

		// Copy navigated message content to clipboard.
		if msg.String() == "alt+w" && m.navigationMessageIndex != -1 {
			messages := m.sess.Messages()
			if m.navigationMessageIndex >= len(messages) {
				m.navigationMessageIndex = -1
				return m, tea.Batch(cmds...)
			}
			if m.clipboardOK {
				content := messages[m.navigationMessageIndex].Content
				clipboard.Write(clipboard.FmtText, []byte(content))
				cmds = append(cmds, m.alert.NewAlertCmd(bubbleup.InfoKey, "Copied to clipboard!"))
			} else {
				cmds = append(cmds, m.alert.NewAlertCmd(bubbleup.WarnKey, "Clipboard unavailable"))
			}
			return m, tea.Batch(cmds...)
		}

		if msg.Alt && !m.sending {
			switch msg.String() {
			case "alt+p":
				m.textarea.SetValue(m.history.Previous(m.textarea.Value()))
				m.historyNavigating = true
				m.adjustTextareaHeight()
				return m, nil
			case "alt+n":
				m.textarea.SetValue(m.history.Next())
				m.historyNavigating = true
				m.adjustTextareaHeight()
				return m, nil
			}
		}

		switch msg.Type {
		case tea.KeyCtrlC:
			m.quitting = true
			return m, tea.Quit

		case tea.KeyCtrlJ:
			if !m.sending && strings.TrimSpace(m.textarea.Value()) != "" {
				return m, m.sendMessage()
			}
		}

		if !m.sending && m.historyNavigating {
			switch msg.Type {
			case tea.KeyRunes, tea.KeyBackspace, tea.KeyDelete:
				m.historyNavigating = false
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalculateLayout()

	case sendResultMsg:
		m.sending = false
		var unavailableError *gateway.GatewayUnavailableError
		switch {
		case errors.As(msg.err, &unavailableError):
			m.notice = unavailableError.Error()
		case msg.err != nil:
			m.err = msg.err
		default:
			m.err = nil
		}
		m.recalculateLayout()
		m.viewport.SetContent(m.renderMessages())
		m.viewport.GotoBottom()
		if msg.message != nil && msg.message.Typing {
			m.startReveal(msg.message.ID, msg.message.Content)
			return m, tea.Batch(append(cmds, revealTick())...)
		}
		return m, tea.Batch(cmds...)

	case revealTickMsg:
		if m.revealID == "" {
			return m, tea.Batch(cmds...)
		}
		m.revealCount += revealStep
		if m.revealCount >= len(m.revealContent) {
			m.sess.OnTypingComplete(m.revealID)
			m.revealID = ""
			m.revealContent = nil
			m.revealCount = 0
		} else {
			cmds = append(cmds, revealTick())
		}
		wasAtBottom := m.viewport.AtBottom()
		m.viewport.SetContent(m.renderMessages())
		if wasAtBottom {
			m.viewport.GotoBottom()
		}
		return m, tea.Batch(cmds...)

	case refreshTickMsg:
		// Pick up anything appended outside the update loop, like a
		// scheduled upgrade prompt.
		if m.ready {
			wasAtBottom := m.viewport.AtBottom()
			m.viewport.SetContent(m.renderMessages())
			if wasAtBottom {
				m.viewport.GotoBottom()
			}
		}
		cmds = append(cmds, refreshTick())
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if !m.sending {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
		m.adjustTextareaHeight()
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.sending {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) startReveal(id, content string) {
	m.revealID = id
	m.revealContent = []rune(content)
	m.revealCount = 0
}

func (m *Model) sendMessage() tea.Cmd {
	text := strings.TrimSpace(m.textarea.Value())
	if text == "" {
		return nil
	}

	m.history.Add(text)
	m.historyNavigating = false
	m.textarea.Reset()
	m.sending = true
	m.recalculateLayout()
	m.viewport.GotoBottom()

	ctx, sess := m.ctx, m.sess
	send := func() tea.Msg {
		message, err := sess.SendUserMessage(ctx, text)
		return sendResultMsg{message: message, err: err}
	}
	return tea.Batch(m.spinner.Tick, send)
}
