// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and validates aplybot configuration.
//
// # Configuration Precedence
//
// Configuration is resolved from (in order of precedence):
//   - Command-line flags (applied by the cli package)
//   - Environment variables (APLYBOT_*)
//   - ~/.aplybot/config.toml, or the file named by --config
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := chatapi.NewClient(&chatapi.ClientConfig{URL: cfg.Endpoint.URL}, nil, nil, logger)
//
// Validation reports every problem at once as a ValidateErrors value.
package config
