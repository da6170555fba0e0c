// internal/ui/model.go
package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	"github.com/user/nexusterm/internal/auth"
	"github.com/user/nexusterm/internal/chatlog"
	"github.com/user/nexusterm/internal/config"
	"github.com/user/nexusterm/internal/reconcile"
	"github.com/user/nexusterm/internal/runtime"
	"github.com/user/nexusterm/internal/sources"
	"github.com/user/nexusterm/internal/state"
	"github.com/user/nexusterm/internal/types"
)

const (
	sidebarWidth = 32
	inputHeight  = 3
	// guestTurnLimit is how many user turns a signed-out user gets
	// before being asked to sign in.
	guestTurnLimit = 2
)

// Deps bundles everything the chat model needs. Reconciler is nil when
// the user is signed out.
type Deps struct {
	Config     *config.Config
	Runtime    *runtime.Runtime
	Log        *chatlog.Log
	Sessions   *state.Store
	Reconciler *reconcile.Reconciler
	Auth       *auth.Manager
	Previewer  *sources.Previewer
	Configured bool
	SignedIn   bool
}

// Model is the bubbletea model for the chat surface.
type Model struct {
	deps Deps

	viewport viewport.Model
	input    textarea.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	width  int
	height int
	ready  bool

	hasStarted   bool
	showSidebar  bool
	sidebarIndex int

	personaKey      string
	useSearch       bool
	useThinking     bool
	useDeepResearch bool

	attachments []types.Attachment
	signedIn    bool
	status      string
	quitting    bool
}

func New(deps Deps) *Model {
	ta := textarea.New()
	ta.Placeholder = "Ask Nexus anything... (/help for commands)"
	ta.Focus()
	ta.CharLimit = 8000
	ta.SetHeight(inputHeight)
	ta.Prompt = "▍ "
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return &Model{
		deps:       deps,
		input:      ta,
		spin:       sp,
		personaKey: deps.Config.Persona,
		useSearch:  deps.Config.UseSearch,
		signedIn:   deps.SignedIn,
	}
}

// SignedOutMsg is sent from outside the program when the remote mirror
// rejects the cached credential.
type SignedOutMsg struct{}

func (m *Model) chatWidth() int {
	w := m.width
	if m.showSidebar {
		w -= sidebarWidth
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (m *Model) chatHeight() int {
	// header + status + input + padding
	h := m.height - inputHeight - 5
	if h < 5 {
		h = 5
	}
	return h
}

func (m *Model) rebuildRenderer() {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(m.chatWidth()-4),
	)
	if err != nil {
		return
	}
	m.renderer = renderer
}

func (m *Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return out
}
