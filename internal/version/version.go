/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package version reports the build version.
package version

import (
	"fmt"
	"runtime"
)

// Version and Commit are set at build time via ldflags:
//
//	-X github.com/MarpatOG/VibeRide/internal/version.Version=X.Y.Z
//	-X github.com/MarpatOG/VibeRide/internal/version.Commit=abc1234
var (
	Version = "0.1.0-dev"
	Commit  = "unknown"
)

// String returns the human readable build description.
func String() string {
	return fmt.Sprintf("viberide %s (commit %s, %s %s/%s)", Version, Commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
