// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/aplybot/internal/session"
)

// EventMsg carries a session event into the Bubble Tea loop.
type EventMsg struct {
	Event session.Event
}

// Bridge forwards session events to a running program in emission order.
//
// Observe never blocks: the controller may emit from inside Update (export,
// clear, open) and Program.Send would otherwise wait on the loop that is
// calling it. Events queue until Run hands them to send.
type Bridge struct {
	mu     sync.Mutex
	queue  []session.Event
	closed bool

	wake chan struct{}
	done chan struct{}
}

// NewBridge creates an idle bridge.
func NewBridge() *Bridge {
	return &Bridge{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Observe queues ev. It is a session.Observer.
func (b *Bridge) Observe(ev session.Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.queue = append(b.queue, ev)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Run delivers queued events to send until Close. Events queued before Close
// are still delivered.
func (b *Bridge) Run(send func(tea.Msg)) {
	for {
		b.mu.Lock()
		batch := b.queue
		b.queue = nil
		closed := b.closed
		b.mu.Unlock()

		for _, ev := range batch {
			send(EventMsg{Event: ev})
		}
		if closed {
			return
		}

		select {
		case <-b.wake:
		case <-b.done:
		}
	}
}

// Close stops Run after it drains. Later events are dropped.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.done)
}
