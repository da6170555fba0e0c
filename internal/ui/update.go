// internal/ui/update.go
package ui

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/user/nexusterm/internal/attach"
	"github.com/user/nexusterm/internal/export"
	"github.com/user/nexusterm/internal/persona"
	"github.com/user/nexusterm/internal/runtime"
	"github.com/user/nexusterm/internal/types"
)

type runtimeEventMsg runtime.Event

type remoteLoadedMsg struct{ err error }

type attachResultsMsg struct{ results []attach.Result }

type spokeMsg struct {
	path string
	err  error
}

type transcribedMsg struct {
	text string
	err  error
}

type previewMsg struct {
	body string
	err  error
}

type exportedMsg struct {
	path string
	err  error
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.spin.Tick, m.waitForEvent()}
	if m.deps.Reconciler != nil && m.signedIn {
		cmds = append(cmds, m.loadRemote())
	}
	return tea.Batch(cmds...)
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.deps.Runtime.Events()
		if !ok {
			return nil
		}
		return runtimeEventMsg(ev)
	}
}

func (m *Model) loadRemote() tea.Cmd {
	return func() tea.Msg {
		return remoteLoadedMsg{err: m.deps.Reconciler.Load(context.Background())}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(m.chatWidth(), m.chatHeight())
			m.ready = true
		} else {
			m.viewport.Width = m.chatWidth()
			m.viewport.Height = m.chatHeight()
		}
		m.input.SetWidth(m.chatWidth() - 4)
		m.rebuildRenderer()
		m.refreshViewport(false)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case runtimeEventMsg:
		m.refreshViewport(true)
		if runtime.Event(msg) == runtime.EventDone {
			m.status = ""
		}
		return m, m.waitForEvent()

	case remoteLoadedMsg:
		if msg.err != nil {
			m.status = "Could not load chats from Drive."
			return m, nil
		}
		if n := m.deps.Sessions.Len(); n > 0 {
			m.status = fmt.Sprintf("Loaded %d chats from Drive.", n)
		}
		return m, nil

	case SignedOutMsg:
		m.signedIn = false
		m.status = "Google session expired. Run 'nexusterm login' to sign in again."
		return m, nil

	case attachResultsMsg:
		added := 0
		for _, r := range msg.results {
			if r.Err != nil {
				m.status = fmt.Sprintf("Could not attach %s.", r.Path)
				continue
			}
			m.attachments = append(m.attachments, r.Attachment)
			added++
		}
		if added > 0 {
			m.status = fmt.Sprintf("%d file(s) attached.", added)
		}
		return m, nil

	case spokeMsg:
		if msg.err != nil {
			m.status = "Speech synthesis failed."
			return m, nil
		}
		m.status = "Audio saved to " + msg.path
		if player := m.deps.Config.Player; player != "" {
			cmd := exec.Command(player, msg.path)
			return m, func() tea.Msg {
				cmd.Run()
				return nil
			}
		}
		return m, nil

	case transcribedMsg:
		if msg.err != nil {
			m.status = "Transcription failed."
			return m, nil
		}
		m.input.SetValue(msg.text)
		m.status = "Transcript ready. Press enter to send."
		return m, nil

	case previewMsg:
		if msg.err != nil {
			m.status = "Could not fetch source."
			return m, nil
		}
		m.deps.Log.Append(types.NewNoticeTurn(strings.Split(msg.body, "\n")...))
		m.refreshViewport(true)
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.status = "Export failed."
		} else {
			m.status = "Transcript written to " + msg.path
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if m.deps.Runtime.Busy() {
			m.refreshViewport(false)
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showSidebar {
		return m.handleSidebarKey(msg)
	}

	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "esc":
		if m.deps.Runtime.Busy() {
			m.deps.Runtime.Cancel()
			m.status = "Stopped."
		}
		return m, nil

	case "ctrl+s":
		m.showSidebar = true
		m.sidebarIndex = 0
		m.viewport.Width = m.chatWidth()
		m.rebuildRenderer()
		m.refreshViewport(false)
		return m, nil

	case "ctrl+n":
		m.newChat()
		return m, nil

	case "ctrl+g":
		m.useSearch = !m.useSearch
		return m, nil

	case "ctrl+t":
		m.useThinking = !m.useThinking
		return m, nil

	case "ctrl+r":
		m.useDeepResearch = !m.useDeepResearch
		return m, nil

	case "ctrl+p":
		m.cyclePersona()
		return m, nil

	case "enter":
		return m.submit()

	case "pgup":
		m.viewport.ViewUp()
		return m, nil

	case "pgdown":
		m.viewport.ViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sessions := m.deps.Sessions.List()

	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "esc", "ctrl+s":
		m.showSidebar = false
		m.viewport.Width = m.chatWidth()
		m.rebuildRenderer()
		m.refreshViewport(false)
		return m, nil

	case "up", "k":
		if m.sidebarIndex > 0 {
			m.sidebarIndex--
		}
		return m, nil

	case "down", "j":
		if m.sidebarIndex < len(sessions)-1 {
			m.sidebarIndex++
		}
		return m, nil

	case "enter":
		if m.sidebarIndex < len(sessions) {
			sess := sessions[m.sidebarIndex]
			if turns, ok := m.deps.Sessions.Select(sess.ID); ok {
				m.deps.Log.Reset(turns)
				m.hasStarted = true
				m.showSidebar = false
				m.viewport.Width = m.chatWidth()
				m.rebuildRenderer()
				m.refreshViewport(true)
			}
		}
		return m, nil

	case "d":
		if m.sidebarIndex < len(sessions) {
			sess := sessions[m.sidebarIndex]
			if m.deps.Sessions.Delete(sess.ID) {
				// Deleting the open chat clears the live log too.
				m.deps.Log.Clear()
				m.hasStarted = false
			}
			if m.sidebarIndex > 0 {
				m.sidebarIndex--
			}
			m.refreshViewport(false)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" && len(m.attachments) == 0 {
		return m, nil
	}

	if strings.HasPrefix(text, "/") {
		m.input.Reset()
		return m.runCommand(text)
	}

	if !m.signedIn && m.deps.Log.UserTurnCount() >= guestTurnLimit {
		m.status = "Sign in to keep chatting: run 'nexusterm login' in another terminal, then restart."
		return m, nil
	}

	if !m.deps.Configured {
		m.deps.Log.Append(types.NewNoticeTurn("CRITICAL ERROR: API Key missing."))
		m.refreshViewport(true)
		return m, nil
	}

	opts := runtime.Options{
		Model:           m.deps.Config.Gemini.Model,
		PersonaKey:      m.personaKey,
		UseSearch:       m.useSearch,
		UseThinking:     m.useThinking,
		UseDeepResearch: m.useDeepResearch,
		Attachments:     m.attachments,
	}
	if err := m.deps.Runtime.Send(text, opts); err != nil {
		if err == runtime.ErrBusy {
			m.status = "Still generating. Press esc to stop."
		} else {
			m.status = err.Error()
		}
		return m, nil
	}

	m.input.Reset()
	m.attachments = nil
	m.hasStarted = true
	m.status = ""
	m.refreshViewport(true)
	return m, nil
}

func (m *Model) runCommand(text string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(text)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/help":
		m.status = "/attach <file> · /say · /dictate <file> · /preview <n> · /persona <key> · /export <file> · /new"

	case "/new":
		m.newChat()

	case "/persona":
		if len(args) == 1 {
			m.personaKey = persona.Get(args[0]).Key
			m.status = "Persona: " + persona.Get(m.personaKey).Name
		} else {
			m.status = "Usage: /persona friendly|formal|academic|brainrot|insulting"
		}

	case "/attach":
		if len(args) == 0 {
			m.status = "Usage: /attach <file> [file...]"
			return m, nil
		}
		return m, func() tea.Msg {
			var results []attach.Result
			for r := range attach.Ingest(context.Background(), args) {
				results = append(results, r)
			}
			return attachResultsMsg{results: results}
		}

	case "/say":
		turn := m.lastAssistantTurn()
		if turn == nil {
			m.status = "Nothing to read aloud yet."
			return m, nil
		}
		m.status = "Synthesizing..."
		return m, func() tea.Msg {
			path, err := m.deps.Runtime.Speak(context.Background(), turn.ID)
			return spokeMsg{path: path, err: err}
		}

	case "/dictate":
		if len(args) != 1 {
			m.status = "Usage: /dictate <audio-file>"
			return m, nil
		}
		m.status = "Transcribing..."
		return m, func() tea.Msg {
			var att types.Attachment
			for r := range attach.Ingest(context.Background(), args) {
				if r.Err != nil {
					return transcribedMsg{err: r.Err}
				}
				att = r.Attachment
			}
			text, err := m.deps.Runtime.Transcribe(context.Background(), att)
			return transcribedMsg{text: text, err: err}
		}

	case "/preview":
		turn := m.lastAssistantTurn()
		if turn == nil || len(turn.Sources) == 0 {
			m.status = "No sources on the last answer."
			return m, nil
		}
		n := 1
		if len(args) == 1 {
			if parsed, err := strconv.Atoi(args[0]); err == nil {
				n = parsed
			}
		}
		if n < 1 || n > len(turn.Sources) {
			m.status = fmt.Sprintf("Source index out of range (1-%d).", len(turn.Sources))
			return m, nil
		}
		uri := turn.Sources[n-1].URI
		m.status = "Fetching source..."
		return m, func() tea.Msg {
			body, err := m.deps.Previewer.Preview(context.Background(), uri)
			return previewMsg{body: body, err: err}
		}

	case "/export":
		if len(args) != 1 {
			m.status = "Usage: /export <file.md>"
			return m, nil
		}
		sess, ok := m.deps.Sessions.Get(m.deps.Sessions.CurrentID())
		if !ok {
			m.status = "Nothing to export yet."
			return m, nil
		}
		path := args[0]
		return m, func() tea.Msg {
			f, err := os.Create(path)
			if err != nil {
				return exportedMsg{err: err}
			}
			defer f.Close()
			return exportedMsg{path: path, err: export.Session(sess, f)}
		}

	default:
		m.status = "Unknown command. Try /help."
	}
	return m, nil
}

func (m *Model) newChat() {
	m.deps.Log.Clear()
	m.deps.Sessions.StartNew()
	m.attachments = nil
	m.hasStarted = false
	m.status = ""
	m.refreshViewport(false)
}

func (m *Model) cyclePersona() {
	all := persona.All()
	for i, p := range all {
		if p.Key == m.personaKey {
			m.personaKey = all[(i+1)%len(all)].Key
			m.status = "Persona: " + persona.Get(m.personaKey).Name
			return
		}
	}
	m.personaKey = all[0].Key
}

func (m *Model) lastAssistantTurn() *types.ChatTurn {
	turns := m.deps.Log.Turns()
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == types.RoleAssistant && turns[i].Settled() {
			return turns[i]
		}
	}
	return nil
}

func (m *Model) refreshViewport(toBottom bool) {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	if toBottom {
		m.viewport.GotoBottom()
	}
}
