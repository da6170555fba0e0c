// internal/ui/view.go
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/user/nexusterm/internal/persona"
	"github.com/user/nexusterm/internal/types"
)

func (m *Model) View() string {
	if m.quitting {
		return "Goodbye.\n"
	}
	if !m.ready {
		return "Starting Nexus..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	chat := m.viewport.View()
	if m.showSidebar {
		chat = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), chat)
	}
	b.WriteString(chat)
	b.WriteString("\n")

	if len(m.attachments) > 0 {
		names := make([]string, len(m.attachments))
		for i, att := range m.attachments {
			names[i] = att.Name
		}
		b.WriteString(attachmentStyle.Render("📎 " + strings.Join(names, ", ")))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	return b.String()
}

func (m *Model) renderHeader() string {
	p := persona.Get(m.personaKey)
	parts := []string{
		headerStyle.Render("NEXUS"),
		toggleOnStyle.Render(p.Name),
		m.renderToggle("Search", m.useSearch),
		m.renderToggle("Thinking", m.useThinking),
		m.renderToggle("Research", m.useDeepResearch),
	}
	if !m.signedIn {
		parts = append(parts, toggleOffStyle.Render("guest"))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderToggle(name string, on bool) string {
	if on {
		return toggleOnStyle.Render("[" + name + "]")
	}
	return toggleOffStyle.Render("[" + name + "]")
}

func (m *Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(sidebarTitleStyle.Render("Chats"))
	b.WriteString("\n\n")

	sessions := m.deps.Sessions.List()
	if len(sessions) == 0 {
		b.WriteString(sidebarItemStyle.Render("No saved chats yet."))
	}
	for i, sess := range sessions {
		title := sess.Title
		if len(title) > sidebarWidth-6 {
			title = title[:sidebarWidth-6]
		}
		line := fmt.Sprintf("%s (%d)", title, len(sess.Messages))
		if i == m.sidebarIndex {
			b.WriteString(sidebarSelectedStyle.Render("> " + line))
		} else {
			b.WriteString(sidebarItemStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(sidebarItemStyle.Render("enter open · d delete · esc close"))
	return sidebarStyle.Height(m.chatHeight()).Render(b.String())
}

func (m *Model) renderTranscript() string {
	turns := m.deps.Log.Turns()
	if len(turns) == 0 && !m.hasStarted {
		return m.renderWelcome()
	}

	var b strings.Builder
	for _, turn := range turns {
		b.WriteString(m.renderTurn(turn))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderWelcome() string {
	lines := []string{
		"",
		welcomeStyle.Render("Welcome to Nexus"),
		"",
		statusStyle.Render("Type a message and press enter."),
		statusStyle.Render("ctrl+s chats · ctrl+p persona · ctrl+g search · ctrl+r deep research"),
	}
	if n := m.deps.Sessions.Len(); n > 0 {
		lines = append(lines, "", statusStyle.Render(fmt.Sprintf("%d saved chats. Press ctrl+s to browse.", n)))
	}
	return lipgloss.PlaceHorizontal(m.chatWidth(), lipgloss.Center, strings.Join(lines, "\n"))
}

func (m *Model) renderTurn(turn *types.ChatTurn) string {
	var b strings.Builder

	switch turn.Role {
	case types.RoleUser:
		b.WriteString(userLabelStyle.Render("You"))
		b.WriteString("\n")
		if len(turn.Attachments) > 0 {
			names := make([]string, len(turn.Attachments))
			for i, att := range turn.Attachments {
				names[i] = att.Name
			}
			b.WriteString(attachmentStyle.Render("📎 " + strings.Join(names, ", ")))
			b.WriteString("\n")
		}
		b.WriteString(turn.Content)
		b.WriteString("\n")

	case types.RoleSystem:
		for _, line := range turn.Lines {
			b.WriteString(noticeStyle.Render(line))
			b.WriteString("\n")
		}
		if turn.Content != "" {
			b.WriteString(noticeStyle.Render(turn.Content))
			b.WriteString("\n")
		}

	default:
		b.WriteString(assistantLabelStyle.Render("Nexus"))
		b.WriteString("\n")
		switch {
		case turn.IsGeneratingImage:
			b.WriteString(m.spin.View() + " Generating image...")
			b.WriteString("\n")
		case turn.IsThinking:
			b.WriteString(m.spin.View() + " Thinking...")
			b.WriteString("\n")
		case turn.IsDeepResearch:
			b.WriteString(m.spin.View() + " Researching...")
			b.WriteString("\n")
		case turn.IsStreaming && turn.Content == "":
			b.WriteString(m.spin.View())
			b.WriteString("\n")
		default:
			b.WriteString(m.renderMarkdown(turn.Content))
		}
		if len(turn.Sources) > 0 {
			b.WriteString(sourceStyle.Render("Sources:"))
			b.WriteString("\n")
			for i, src := range turn.Sources {
				label := src.Title
				if label == "" {
					label = src.URI
				}
				b.WriteString(sourceStyle.Render(fmt.Sprintf("%d. %s", i+1, label)))
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}
