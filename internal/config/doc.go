// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config loads the consultaprocesos configuration.
//
// Precedence is defaults, then the YAML file (strict, unknown keys are
// fatal), then environment variables. Command-line flags are applied by the
// CLI on top of the returned AppConfig.
package config
