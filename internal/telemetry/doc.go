// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry reports widget usage events to an analytics collaborator.
//
// Tracking is best-effort. A Tracker never blocks its caller, never returns an
// error, and never retries a failed delivery. A nil Tracker is valid
// everywhere one is accepted; use Track to call through it.
//
// # Key Types
//
//   - Tracker: the interface the session controller calls
//   - Event: one usage event with its fixed category and label
//   - LogTracker: writes events to the structured log
//   - BeaconTracker: posts events to an HTTP beacon from a background worker,
//     rate limited and dropping on overflow
//   - Multi: fans one event out to several trackers
//
// # Usage
//
//	tracker := telemetry.NewBeaconTracker(telemetry.DefaultBeaconConfig(url), logger)
//	defer tracker.Close()
//	telemetry.Track(tracker, telemetry.EventChatOpened)
package telemetry
