package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
)

func (m *Model) adjustTextareaHeight() {
	content := m.textarea.Value()
	lineCount := strings.Count(content, "\n") + 1

	newHeight := lineCount
	if newHeight < minTextareaHeight {
		newHeight = minTextareaHeight
	}
	if newHeight > maxTextareaHeight {
		newHeight = maxTextareaHeight
	}

	oldHeight := m.textarea.Height()
	if oldHeight != newHeight {
		m.textarea.SetHeight(newHeight)

		heightDiff := newHeight - oldHeight

		m.recalculateLayout()

		if heightDiff != 0 && m.ready {
			m.viewport.LineDown(heightDiff)
		}
	}
}

func (m *Model) recalculateLayout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	viewportHeight := m.height - headerHeight
	viewportWidth := m.width

	if !m.sending {
		viewportHeight -= m.textarea.Height() + inputBorderHeight
	}
	if m.notice != "" {
		viewportHeight -= 1
	}
	if m.err != nil {
		viewportHeight -= 1
	}

	if viewportHeight < minViewportHeight {
		viewportHeight = minViewportHeight
	}
	m.renderer.SetWidth(viewportWidth - messageHorizontalFrameSize())

	if !m.ready {
		m.viewport = viewport.New(viewportWidth, viewportHeight)
		m.ready = true
		m.viewport.SetContent(m.renderMessages())
		m.viewport.GotoBottom()
	} else {
		m.viewport.Width = viewportWidth
		m.viewport.Height = viewportHeight
		m.textarea.SetWidth(viewportWidth - textAreaStyle.GetHorizontalFrameSize())
		m.viewport.SetContent(m.renderMessages())
	}
}
