// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jeranaias/aplybot/internal/chatapi"
	"github.com/jeranaias/aplybot/internal/config"
	"github.com/jeranaias/aplybot/internal/export"
	"github.com/jeranaias/aplybot/internal/logging"
	"github.com/jeranaias/aplybot/internal/session"
	"github.com/jeranaias/aplybot/internal/telemetry"
)

// =============================================================================
// APPLICATION STATE
// =============================================================================

// app holds what every command needs once flags and config are resolved.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	logCloser io.Closer
	closers   []func()
}

// newApp loads configuration and builds the logger.
func newApp(flags *rootFlags) (*app, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFromPath(flags.configPath, false)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	if flags.endpoint != "" {
		cfg.Endpoint.URL = flags.endpoint
	}

	logger, closer, err := logging.New(logging.Options{
		Level:   level,
		File:    cfg.Logging.File,
		Console: flags.logConsole,
	})
	if err != nil {
		return nil, errors.Wrap(err, "logging")
	}

	return &app{cfg: cfg, logger: logger, logCloser: closer}, nil
}

// close releases collaborators in reverse order of creation.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

// =============================================================================
// COLLABORATORS
// =============================================================================

// newTransport builds the chat client with its cookie jar and CSRF sources:
// the cookie first, then the page meta tag when a page is configured.
func (a *app) newTransport() (*chatapi.Client, error) {
	ep := a.cfg.Endpoint

	jar, err := chatapi.NewCookieJar()
	if err != nil {
		return nil, err
	}

	cookie, err := chatapi.NewCookieToken(jar, ep.URL, ep.CSRFCookie)
	if err != nil {
		return nil, err
	}
	sources := chatapi.ChainToken{cookie}
	if ep.PageURL != "" {
		pageClient := &http.Client{Jar: jar, Timeout: a.cfg.ConnectTimeout()}
		sources = append(sources, chatapi.NewMetaTagToken(pageClient, ep.PageURL, ep.CSRFMeta))
	}

	return chatapi.NewClient(&chatapi.ClientConfig{
		URL:            ep.URL,
		ConnectTimeout: a.cfg.ConnectTimeout(),
		CSRFHeader:     ep.CSRFHeader,
	}, sources, jar, a.logger), nil
}

// newTracker returns the configured telemetry tracker, or nil when disabled.
func (a *app) newTracker() telemetry.Tracker {
	tc := a.cfg.Telemetry
	if !tc.Enabled {
		return nil
	}

	logTracker := telemetry.NewLogTracker(a.logger, tc.Category, tc.Label)
	if tc.BeaconURL == "" {
		return logTracker
	}

	bc := telemetry.DefaultBeaconConfig(tc.BeaconURL)
	bc.Category = tc.Category
	bc.Label = tc.Label
	bc.RatePerMinute = tc.RatePerMinute
	beacon := telemetry.NewBeaconTracker(bc, a.logger)
	a.closers = append(a.closers, beacon.Close)

	return telemetry.Multi{logTracker, beacon}
}

// newSaver returns the export collaborator for the configured directory and format.
func (a *app) newSaver() (*export.FileSaver, error) {
	format, err := export.ParseFormat(a.cfg.Export.Format)
	if err != nil {
		return nil, err
	}
	return export.NewFileSaver(&export.Options{
		OutputDir: a.cfg.Export.Dir,
		Format:    format,
		Brand:     a.cfg.UI.Brand,
	})
}

// newController wires a session controller whose events go to observer.
func (a *app) newController(observer session.Observer) (*session.Controller, error) {
	transport, err := a.newTransport()
	if err != nil {
		return nil, errors.Wrap(err, "chat transport")
	}
	saver, err := a.newSaver()
	if err != nil {
		return nil, errors.Wrap(err, "export")
	}
	texts := session.DefaultTexts(a.cfg.UI.Brand, a.cfg.UI.SupportEmail)

	ctrl, err := session.New(session.Options{
		Transport:    transport,
		Saver:        saver,
		Tracker:      a.newTracker(),
		Observer:     observer,
		HistoryLimit: a.cfg.History.Limit,
		Texts:        &texts,
		Logger:       a.logger,
		Now:          time.Now,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, ctrl.Shutdown)

	a.logger.Info().
		Str("session", ctrl.ID().String()).
		Str("endpoint", transport.Endpoint()).
		Msg("session started")
	return ctrl, nil
}
