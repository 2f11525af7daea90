// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog"

	"github.com/jeranaias/aplybot/internal/session"
	"github.com/jeranaias/aplybot/internal/ui/styles"
)

// NoticeDuration is how long a status notification stays visible.
const NoticeDuration = 3 * time.Second

// maxBoxWidth caps the open widget so clicks beside it count as outside.
const maxBoxWidth = 76

// =============================================================================
// MESSAGES
// =============================================================================

// submitDoneMsg reports that a Submit call returned.
type submitDoneMsg struct {
	err error
}

// noticeExpiredMsg hides notice seq if it is still the one shown.
type noticeExpiredMsg struct {
	seq int
}

// =============================================================================
// MODEL
// =============================================================================

type modal int

const (
	modalNone modal = iota
	modalInfo
	modalConfirmClear
)

// Options configures a widget Model.
type Options struct {
	Controller *session.Controller
	Theme      *styles.Theme

	// Context bounds every exchange (default: context.Background()).
	Context context.Context

	MaxChars    int
	WarnChars   int
	DangerChars int

	// StartOpen opens the widget on Init.
	StartOpen bool

	Logger zerolog.Logger
}

// Model is the Bubble Tea model for the chat widget. Conversation content is
// read from the controller's store; everything else mirrors session events.
type Model struct {
	ctrl   *session.Controller
	texts  session.Texts
	theme  *styles.Theme
	keys   KeyMap
	ctx    context.Context
	logger zerolog.Logger

	width  int
	height int

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	renderer      *glamour.TermRenderer
	rendererWidth int
	rendered      map[string]string

	// Mirrored session state
	open        bool
	connected   bool
	typing      bool
	suggestions bool
	streaming   string

	modal modal

	notice     string
	noticeKind session.NoticeKind
	noticeSeq  int

	maxChars    int
	warnChars   int
	dangerChars int
	startOpen   bool
}

// New creates a closed widget for opts.Controller.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme("auto")
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	maxChars := opts.MaxChars
	if maxChars <= 0 {
		maxChars = 500
	}
	warn, danger := opts.WarnChars, opts.DangerChars
	if warn <= 0 {
		warn = maxChars * 4 / 5
	}
	if danger <= 0 {
		danger = maxChars * 9 / 10
	}

	texts := opts.Controller.Texts()

	input := textinput.New()
	input.Placeholder = "Type your message..."
	input.CharLimit = maxChars
	input.Prompt = "› "
	input.PromptStyle = theme.InputPrompt
	input.PlaceholderStyle = theme.InputPlaceholder

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(theme.Typing),
	)

	return Model{
		ctrl:        opts.Controller,
		texts:       texts,
		theme:       theme,
		keys:        DefaultKeyMap(),
		ctx:         ctx,
		logger:      opts.Logger.With().Str("component", "widget").Logger(),
		viewport:    viewport.New(0, 0),
		input:       input,
		spinner:     sp,
		rendered:    make(map[string]string),
		connected:   true,
		suggestions: true,
		maxChars:    maxChars,
		warnChars:   warn,
		dangerChars: danger,
		startOpen:   opts.StartOpen,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.startOpen {
		m.ctrl.Open()
	}
	return textinput.Blink
}

// =============================================================================
// COMMANDS
// =============================================================================

// submitCmd runs one exchange off the update loop.
func (m Model) submitCmd(text string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return submitDoneMsg{err: ctrl.Submit(ctx, text)}
	}
}

// submitIntentCmd sends a canned prompt directly.
func (m Model) submitIntentCmd(intent session.Intent) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return submitDoneMsg{err: ctrl.SubmitIntent(ctx, intent)}
	}
}

func expireNotice(seq int) tea.Cmd {
	return tea.Tick(NoticeDuration, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

// =============================================================================
// LAYOUT
// =============================================================================

// boxRect returns the open widget's position and size. The widget hugs the
// right edge; narrow terminals get the full width.
func (m Model) boxRect() (x, y, w, h int) {
	w = m.width
	if w > maxBoxWidth {
		w = maxBoxWidth
	}
	return m.width - w, 0, w, m.height
}

// contains reports whether the cell (x, y) falls inside the open widget.
func (m Model) contains(x, y int) bool {
	bx, by, bw, bh := m.boxRect()
	return x >= bx && x < bx+bw && y >= by && y < by+bh
}

// innerWidth is the usable width inside the widget border.
func (m Model) innerWidth() int {
	_, _, w, _ := m.boxRect()
	if w < 4 {
		return 1
	}
	return w - 2
}

// resize fits the viewport and input to the current window.
func (m *Model) resize() {
	_, _, _, h := m.boxRect()
	inner := m.innerWidth()

	// border(2) + header + typing line + input(2) + footer
	used := 7
	if m.suggestions {
		used++
	}
	vh := h - used
	if vh < 3 {
		vh = 3
	}

	m.viewport.Width = inner
	m.viewport.Height = vh
	m.input.Width = inner - 6 - len(m.counterText())
	if m.input.Width < 1 {
		m.input.Width = 1
	}
	m.theme.SetSize(m.width, m.height)
	m.refresh()
}
