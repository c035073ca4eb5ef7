// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package version carries build metadata injected through ldflags.
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is the release version, set with
	// -ldflags "-X github.com/ManuGH/consultaprocesos/internal/version.Version=v1.2.3".
	Version = "dev"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// Resolve returns Version, falling back to the module version recorded by
// "go install" when no ldflags were given.
func Resolve() string {
	if Version != "dev" && Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return "dev"
}

// String renders the full build identity.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Resolve(), Commit, Date)
}
