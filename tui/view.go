package tui

import (
	"fmt"
	"strings"

	"github.com/novachat/novachat/session"
)

// View renders the model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder

	b.WriteString(m.renderTitle())
	b.WriteString("\n")

	b.WriteString(viewportStyle.Render(m.viewport.View()))
	b.WriteString("\n")

	if m.sending {
		b.WriteString(fmt.Sprintf("%s Waiting for reply...\n", m.spinner.View()))
	} else {
		b.WriteString(textAreaStyle.Render(m.textarea.View()))
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	return m.alert.Render(b.String())
}

func (m *Model) renderTitle() string {
	agentName := "agent"
	if agent := m.sess.ActiveAgent(); agent != nil {
		agentName = agent.Name
		if agent.Avatar != "" {
			agentName = agent.Avatar + " " + agentName
		}
	}
	chatTitle := ""
	if chat := m.sess.ActiveChat(); chat != nil {
		chatTitle = chat.Title
	}
	title := fmt.Sprintf(" %s │ 💬 %s ", agentName, chatTitle)
	return titleStyle.Width(m.width).Render(title)
}

func (m *Model) renderMessages() string {
	var b strings.Builder

	messages := m.sess.Messages()
	for i, message := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		style := agentMessageStyle
		if m.navigationMessageIndex == i {
			style = style.BorderForeground(accentColor)
		}

		switch {
		case message.UpgradeCTA || message.CreditsCTA:
			b.WriteString(upsellMessageStyle.Render(message.Content))

		case message.Role == session.RoleUser:
			rendered := m.renderer.Render(message.ID, message.Content)
			if m.navigationMessageIndex == i {
				b.WriteString(userMessageStyle.BorderForeground(accentColor).Render(rendered))
			} else {
				b.WriteString(userMessageStyle.Render(rendered))
			}

		case message.ID == m.revealID:
			// Mid typing animation: render the visible prefix uncached.
			visible := m.revealContent
			if m.revealCount < len(visible) {
				visible = visible[:m.revealCount]
			}
			rendered := m.renderer.Render("", string(visible))
			b.WriteString(style.Render(rendered + spinnerStyle.Render("▋")))

		default:
			rendered := m.renderer.Render(message.ID, message.Content)
			b.WriteString(style.Render(rendered))
		}
	}

	if m.sending {
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("..."))
	}

	return b.String()
}
