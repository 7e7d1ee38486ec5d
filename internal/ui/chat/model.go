// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	core "github.com/jeranaias/talkchat/internal/chat"
	"github.com/jeranaias/talkchat/internal/commands"
	"github.com/jeranaias/talkchat/internal/display"
	"github.com/jeranaias/talkchat/internal/ui/components"
	"github.com/jeranaias/talkchat/internal/ui/styles"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options wires the chat view to a session.
type Options struct {
	Chat     *core.Orchestrator
	Commands *commands.Registry
	Env      *commands.Env

	// Backend is shown in the header.
	Backend string

	// Follower decides auto-scroll. The zero value uses the default threshold.
	Follower display.Follower

	// Theme defaults to styles.NewTheme().
	Theme *styles.Theme

	Log zerolog.Logger
}

// =============================================================================
// MODEL
// =============================================================================

// noteKind styles a line of slash-command output.
type noteKind int

const (
	noteInfo noteKind = iota
	noteError
)

// note is slash-command output. It is local to the view and never enters
// the conversation.
type note struct {
	// after is the history length when the note was added; the note is
	// drawn before history entry number after.
	after int
	input string
	text  string
	kind  noteKind
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctx context.Context
	log zerolog.Logger

	// Session
	chat      *core.Orchestrator
	registry  *commands.Registry
	env       *commands.Env
	parser    *commands.Parser
	completer *commands.Completer

	// Latest published state
	snap     core.Snapshot
	follower display.Follower

	// pending is the prompt of the live turn; it is not in history until
	// the reply commits.
	pending    string
	submitting bool

	notes          []note
	commandRunning bool
	cancelMgr      *cancelManager

	// Completion
	completionState *commands.CompletionState
	showCompletions bool

	// Components
	theme     *styles.Theme
	header    *components.Header
	statusBar *components.StatusBar
	popup     *components.CompletionPopup
	viewport  viewport.Model
	input     textarea.Model
	spinner   spinner.Model
	help      help.Model

	keys     KeyMap
	showHelp bool

	width  int
	height int
	ready  bool

	quitting bool
}

// New creates the chat model.
func New(ctx context.Context, opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	follower := opts.Follower
	if follower.Threshold <= 0 {
		follower = display.NewFollower()
	}
	registry := opts.Commands
	if registry == nil {
		registry = commands.NewRegistry()
	}
	env := opts.Env
	if env == nil {
		env = &commands.Env{Chat: opts.Chat}
	}

	m := Model{
		ctx:             ctx,
		log:             opts.Log,
		chat:            opts.Chat,
		registry:        registry,
		env:             env,
		parser:          commands.NewParser(registry),
		completer:       commands.NewCompleter(registry),
		snap:            opts.Chat.Snapshot(),
		follower:        follower,
		cancelMgr:       newCancelManager(),
		completionState: commands.NewCompletionState(),
		theme:           theme,
		header:          components.NewHeader(theme),
		statusBar:       components.NewStatusBar(theme),
		popup:           components.NewCompletionPopup(theme),
		viewport:        viewport.New(theme.Width, theme.Height),
		input:           newInput(theme),
		spinner:         newSpinner(theme),
		help:            help.New(),
		keys:            DefaultKeyMap(),
	}

	m.header.SetBackend(opts.Backend)
	m.header.SetModel(m.snap.Model.Label())
	m.statusBar.SetSnapshot(m.snap)
	m.statusBar.SetHint(m.shortHint())
	return m
}

// Init starts the cursor blink and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

// Snapshot returns the last snapshot applied to the view.
func (m Model) Snapshot() core.Snapshot {
	return m.snap
}

// Quitting reports whether the model asked the program to exit.
func (m Model) Quitting() bool {
	return m.quitting
}

// =============================================================================
// LAYOUT
// =============================================================================

const (
	headerHeight = 1
	statusHeight = 1
	minViewport  = 3
)

// layout sizes every component for the current window.
func (m *Model) layout() {
	m.theme.SetSize(m.width, m.height)
	m.header.SetWidth(m.width)
	m.statusBar.SetWidth(m.width)
	m.help.Width = m.width
	m.popup.SetWidth(minInt(60, maxInt(m.width-6, 20)))

	resizeInput(&m.input, m.width)

	vpHeight := m.height - headerHeight - statusHeight - inputBoxHeight()
	if vpHeight < minViewport {
		vpHeight = minViewport
	}
	m.viewport.Width = m.width
	m.viewport.Height = vpHeight
}

func (m Model) shortHint() string {
	return "Enter send | A-Enter newline | Tab complete | F1 help"
}

func newSpinner(theme *styles.Theme) spinner.Model {
	return spinner.New(
		spinner.WithSpinner(spinnerFor(core.PhaseConnecting)),
		spinner.WithStyle(theme.Spinner),
	)
}

// spinnerFor picks the animation for a phase: dots while waiting to retry,
// a rotating line otherwise.
func spinnerFor(phase core.Phase) spinner.Spinner {
	cfg := styles.LineSpinner
	if phase == core.PhaseBackoff {
		cfg = styles.DotsSpinner
	}
	return spinner.Spinner{Frames: cfg.Frames, FPS: cfg.Duration()}
}
