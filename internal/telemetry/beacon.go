// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// BeaconConfig holds configuration for the HTTP beacon tracker.
type BeaconConfig struct {
	// URL receiving one JSON Event per POST.
	URL string

	// Category and Label override the fixed event dimensions when set.
	Category string
	Label    string

	// RatePerMinute caps deliveries; events over the cap are dropped (default: 30).
	RatePerMinute int

	// QueueSize is the number of events buffered for the worker (default: 16).
	QueueSize int

	// Timeout for a single delivery (default: 5s).
	Timeout time.Duration
}

// DefaultBeaconConfig returns the default configuration for url.
func DefaultBeaconConfig(url string) BeaconConfig {
	return BeaconConfig{
		URL:           url,
		Category:      DefaultCategory,
		Label:         DefaultLabel,
		RatePerMinute: 30,
		QueueSize:     16,
		Timeout:       5 * time.Second,
	}
}

// BeaconTracker posts events to an HTTP endpoint from a single background
// worker. Track never blocks: an event is dropped when the rate limit is
// exhausted, the queue is full, or the tracker is closed. Failed deliveries
// are logged and forgotten.
type BeaconTracker struct {
	config  BeaconConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	wg     sync.WaitGroup

	sent    atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewBeaconTracker creates the tracker and starts its worker. Call Close to
// stop the worker.
func NewBeaconTracker(config BeaconConfig, logger zerolog.Logger) *BeaconTracker {
	defaults := DefaultBeaconConfig(config.URL)
	if config.Category == "" {
		config.Category = defaults.Category
	}
	if config.Label == "" {
		config.Label = defaults.Label
	}
	if config.RatePerMinute <= 0 {
		config.RatePerMinute = defaults.RatePerMinute
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	perMinute := rate.Every(time.Minute / time.Duration(config.RatePerMinute))
	b := &BeaconTracker{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout, Transport: &http.Transport{Proxy: http.ProxyFromEnvironment}},
		limiter: rate.NewLimiter(perMinute, config.RatePerMinute),
		logger:  logger.With().Str("component", "telemetry").Logger(),
		queue:   make(chan Event, config.QueueSize),
	}

	b.wg.Add(1)
	go b.run()
	return b
}

// Track implements Tracker.
func (b *BeaconTracker) Track(name string) {
	ev := NewEvent(name)
	ev.Category = b.config.Category
	ev.Label = b.config.Label

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed || !b.limiter.Allow() {
		b.dropped.Add(1)
		return
	}
	select {
	case b.queue <- ev:
	default:
		b.dropped.Add(1)
	}
}

// Close stops accepting events, delivers what is already queued and waits for
// the worker to exit. It is safe to call more than once.
func (b *BeaconTracker) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()

	b.wg.Wait()
	if t, ok := b.client.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}

	b.logger.Debug().
		Int64("sent", b.sent.Load()).
		Int64("dropped", b.dropped.Load()).
		Int64("failed", b.failed.Load()).
		Msg("telemetry beacon stopped")
}

// Stats returns the number of delivered, dropped and failed events.
func (b *BeaconTracker) Stats() (sent, dropped, failed int64) {
	return b.sent.Load(), b.dropped.Load(), b.failed.Load()
}

func (b *BeaconTracker) run() {
	defer b.wg.Done()
	for ev := range b.queue {
		if err := b.deliver(ev); err != nil {
			b.failed.Add(1)
			b.logger.Debug().Err(err).Str("event", ev.Name).Msg("telemetry delivery failed")
			continue
		}
		b.sent.Add(1)
	}
}

func (b *BeaconTracker) deliver(ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.config.URL, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build beacon request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post beacon")
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("beacon returned HTTP %d", resp.StatusCode)
	}
	return nil
}
