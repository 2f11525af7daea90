// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jeranaias/aplybot/internal/ui/styles"
	"github.com/jeranaias/aplybot/internal/ui/widget"
)

// rootFlags are the persistent flags shared by every command.
type rootFlags struct {
	configPath string
	endpoint   string
	logLevel   string
	logConsole bool
	plain      bool
	open       bool
}

// NewRootCommand builds the aplybot command tree. Without a subcommand it
// starts the chat: the full-screen widget on a terminal, the line-mode REPL
// otherwise or with --plain.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "aplybot",
		Short: "Chat with the AplyBot assistant from your terminal",
		Long: `aplybot is a terminal chat client for the AplyBot assistant.

It streams answers from the chat endpoint, keeps the last messages of the
conversation as context, and can export the conversation to JSON or Markdown.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if flags.plain || !Interactive() {
				return runREPL(ctx, a)
			}
			return runWidget(ctx, a, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.aplybot/config.toml)")
	pf.StringVar(&flags.endpoint, "endpoint", "", "chat endpoint URL")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error, disabled")
	pf.BoolVar(&flags.logConsole, "log-console", false, "also write logs to stderr (line mode only)")
	root.Flags().BoolVar(&flags.plain, "plain", false, "use the line-mode REPL instead of the full-screen widget")
	root.Flags().BoolVar(&flags.open, "open", false, "start with the widget open")

	root.AddCommand(
		newAskCommand(flags),
		newConfigCommand(flags),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	root := NewRootCommand()
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, ErrFallback) {
			fmt.Fprintln(os.Stderr, styles.RenderError(err.Error()))
		}
		return 1
	}
	return 0
}

// =============================================================================
// CHAT FRONT ENDS
// =============================================================================

func runWidget(ctx context.Context, a *app, flags *rootFlags) error {
	if flags.logConsole {
		a.logger.Warn().Msg("--log-console is ignored by the full-screen widget")
	}

	bridge := widget.NewBridge()
	ctrl, err := a.newController(bridge.Observe)
	if err != nil {
		return err
	}

	m := widget.New(widget.Options{
		Controller:  ctrl,
		Theme:       styles.NewTheme(a.cfg.UI.Theme),
		Context:     ctx,
		MaxChars:    a.cfg.Input.MaxChars,
		WarnChars:   a.cfg.Input.WarnChars,
		DangerChars: a.cfg.Input.DangerChars,
		StartOpen:   flags.open || a.cfg.UI.StartOpen,
		Logger:      a.logger,
	})
	return widget.Run(ctx, m, bridge)
}

func runREPL(ctx context.Context, a *app) error {
	applyColorProfile()

	editor := NewLineEditor()
	defer editor.Close()

	repl := NewREPL(editor, os.Stdout)
	ctrl, err := a.newController(repl.Observe)
	if err != nil {
		return err
	}
	repl.Attach(ctrl)
	return repl.Run(ctx)
}
