// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/pkg/errors"

	"github.com/jeranaias/aplybot/internal/chatapi"
	"github.com/jeranaias/aplybot/internal/config"
	"github.com/jeranaias/aplybot/internal/session"
	"github.com/jeranaias/aplybot/internal/ui/styles"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// LineReader reads one line of input after showing prompt.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// LineEditor provides input history and line editing for the REPL.
type LineEditor struct {
	line        *liner.State
	historyFile string
}

// NewLineEditor creates a LineEditor with history loaded from the config dir.
func NewLineEditor() *LineEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	e := &LineEditor{
		line:        line,
		historyFile: filepath.Join(configDir, "input_history"),
	}
	if f, err := os.Open(e.historyFile); err == nil {
		_, _ = e.line.ReadHistory(f)
		f.Close()
	}
	return e
}

// Prompt reads a line and records non-empty input in the history.
func (e *LineEditor) Prompt(prompt string) (string, error) {
	input, err := e.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		e.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the terminal.
func (e *LineEditor) Close() {
	if err := os.MkdirAll(filepath.Dir(e.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(e.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = e.line.WriteHistory(f)
			f.Close()
		}
	}
	e.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// REPL is the line-mode front end for a chat session.
type REPL struct {
	ctrl  *session.Controller
	in    LineReader
	out   io.Writer
	texts session.Texts

	streaming bool
}

// NewREPL creates a REPL printing to out. Its Observe method must be the
// controller's observer; call Attach once the controller exists.
func NewREPL(in LineReader, out io.Writer) *REPL {
	return &REPL{in: in, out: out}
}

// Attach binds the controller the REPL drives.
func (r *REPL) Attach(ctrl *session.Controller) {
	r.ctrl = ctrl
	r.texts = ctrl.Texts()
}

// Observe prints session events as they happen. Fragments stream inline.
func (r *REPL) Observe(ev session.Event) {
	switch ev := ev.(type) {
	case session.StreamUpdateEvent:
		switch ev.Kind {
		case chatapi.EventDelta:
			if !r.streaming {
				fmt.Fprint(r.out, BotStyle.Render(r.texts.Brand+": "))
				r.streaming = true
			}
			fmt.Fprint(r.out, ev.Fragment)
		case chatapi.EventCommitted:
			if !r.streaming {
				fmt.Fprint(r.out, BotStyle.Render(r.texts.Brand+": "))
			}
			fmt.Fprintln(r.out)
			r.streaming = false
		case chatapi.EventInterrupted:
			if r.streaming {
				fmt.Fprintln(r.out)
			}
			fmt.Fprintln(r.out, MutedStyle.Render(ev.Text))
			r.streaming = false
		}
	case session.AssistantFallbackEvent:
		fmt.Fprintln(r.out, BotStyle.Render(r.texts.Brand+": ")+ev.Message.Content)
	case session.NoticeEvent:
		fmt.Fprintln(r.out, styles.RenderStatus(ev.Kind == session.NoticeSuccess, ev.Text))
	case session.HistoryClearedEvent:
		r.printSuggestions()
	}
}

// Run reads lines until /quit, EOF or an aborted prompt.
func (r *REPL) Run(ctx context.Context) error {
	if r.ctrl == nil {
		return errors.New("repl: no controller attached")
	}
	r.ctrl.Open()
	defer r.ctrl.Shutdown()

	fmt.Fprintln(r.out, TitleStyle.Render(r.texts.Brand))
	fmt.Fprintln(r.out, r.texts.Welcome)
	r.printSuggestions()
	fmt.Fprintln(r.out, MutedStyle.Render("Type /info for commands, /quit to leave."))

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := r.in.Prompt("› ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Fprintln(r.out)
				return nil
			}
			return errors.Wrap(err, "read input")
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if !r.command(ctx, line) {
				return nil
			}
			continue
		}
		if err := r.ctrl.Submit(ctx, line); err != nil && !session.IsRejection(err) {
			return err
		}
	}
}

// command runs a slash command and reports whether the loop continues.
func (r *REPL) command(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "/quit", "/exit":
		return false

	case "/clear":
		r.ctrl.ClearHistory(func() bool {
			answer, err := r.in.Prompt(WarningStyle.Render(r.texts.ClearPrompt) + " [y/N] ")
			if err != nil {
				return false
			}
			answer = strings.ToLower(strings.TrimSpace(answer))
			return answer == "y" || answer == "yes"
		})

	case "/export":
		// Outcome is printed by the notice event.
		_, _ = r.ctrl.ExportHistory()

	case "/suggest":
		if len(fields) < 2 {
			r.printSuggestions()
			return true
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			fmt.Fprintln(r.out, styles.RenderError("usage: /suggest N"))
			return true
		}
		intent, err := session.IntentAt(n)
		if err != nil {
			fmt.Fprintln(r.out, styles.RenderError(err.Error()))
			return true
		}
		fmt.Fprintln(r.out, PromptStyle.Render("› ")+intent.Prompt())
		if err := r.ctrl.SubmitIntent(ctx, intent); err != nil && !session.IsRejection(err) {
			fmt.Fprintln(r.out, styles.RenderError(err.Error()))
		}

	case "/info":
		r.printInfo()

	default:
		fmt.Fprintln(r.out, styles.RenderError("unknown command "+fields[0]+" (try /info)"))
	}
	return true
}

func (r *REPL) printSuggestions() {
	var parts []string
	for i, intent := range session.Intents {
		parts = append(parts, fmt.Sprintf("%d %s", i+1, intent.Label()))
	}
	fmt.Fprintln(r.out, MutedStyle.Render("Suggestions (/suggest N): "+strings.Join(parts, " · ")))
}

func (r *REPL) printInfo() {
	fmt.Fprintln(r.out, TitleStyle.Render("About "+r.texts.Brand))
	fmt.Fprintf(r.out, "%s answers questions about web development, AI solutions, mobile apps\n", r.texts.Brand)
	fmt.Fprintf(r.out, "and project budgets. Contact %s for a formal quote.\n", r.texts.SupportEmail)
	rows := [][2]string{
		{"/clear", "clear the conversation"},
		{"/export", "save the conversation to a file"},
		{"/suggest N", "send suggestion N"},
		{"/info", "show this help"},
		{"/quit", "leave"},
	}
	for _, row := range rows {
		fmt.Fprintln(r.out, LabelStyle.Width(12).Render(row[0])+ValueStyle.Render(row[1]))
	}
}
