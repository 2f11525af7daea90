// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
)

// Run starts the full-screen program for m and blocks until it exits. The
// controller behind m must have been created with bridge.Observe as its
// observer. Cancelling ctx ends the program without an error.
func Run(ctx context.Context, m Model, bridge *Bridge, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	}, opts...)
	p := tea.NewProgram(m, opts...)

	pumped := make(chan struct{})
	go func() {
		defer close(pumped)
		bridge.Run(p.Send)
	}()

	_, err := p.Run()
	bridge.Close()
	<-pumped

	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return errors.Wrap(err, "widget")
	}
	return nil
}
