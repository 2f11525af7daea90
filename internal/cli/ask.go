// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jeranaias/aplybot/internal/chatapi"
	"github.com/jeranaias/aplybot/internal/session"
)

// ErrFallback is returned by ask when the answer is the connection-error
// fallback rather than a reply from the endpoint.
var ErrFallback = errors.New("no answer from the chat endpoint")

// asker collects one exchange. Without rendering it streams fragments to out
// as they arrive; with rendering it prints the committed answer as markdown.
type asker struct {
	out    io.Writer
	render bool
	width  int

	mu       sync.Mutex
	answer   string
	fallback bool
}

func (a *asker) observe(ev session.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch ev := ev.(type) {
	case session.StreamUpdateEvent:
		switch ev.Kind {
		case chatapi.EventDelta:
			if !a.render {
				fmt.Fprint(a.out, ev.Fragment)
			}
		case chatapi.EventCommitted:
			a.answer = ev.Message.Content
		}
	case session.AssistantFallbackEvent:
		a.fallback = true
		a.answer = ev.Message.Content
	}
}

// finish prints whatever the stream has not already printed.
func (a *asker) finish() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case a.fallback:
		fmt.Fprintln(a.out, a.answer)
		return ErrFallback
	case a.render:
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(a.width),
		)
		if err == nil {
			if out, err := r.Render(a.answer); err == nil {
				fmt.Fprint(a.out, out)
				return nil
			}
		}
		fmt.Fprintln(a.out, a.answer)
	default:
		fmt.Fprintln(a.out)
	}
	return nil
}

func newAskCommand(flags *rootFlags) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "ask QUESTION...",
		Short: "Ask one question and print the answer",
		Long: `Send a single message to the chat endpoint and print the streamed
answer. On a terminal the answer is rendered as markdown once complete;
otherwise it is streamed as plain text.

The exit status is non-zero when the endpoint could not answer.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.close()

			return runAsk(cmd.Context(), a, strings.Join(args, " "), cmd.OutOrStdout(), !raw && IsStdoutTTY())
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "stream plain text even on a terminal")
	return cmd
}

func runAsk(ctx context.Context, a *app, question string, out io.Writer, render bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ask := &asker{out: out, render: render, width: GetTerminalWidth() - 2}

	ctrl, err := a.newController(ask.observe)
	if err != nil {
		return err
	}
	ctrl.Open()
	defer ctrl.Shutdown()

	if err := ctrl.Submit(ctx, question); err != nil {
		return err
	}
	return ask.finish()
}
