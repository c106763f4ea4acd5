// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 lidarscope authors
//
// Lidarscope - XV-11 LIDAR Serial Protocol Analyzer
//
// A CLI tool for monitoring and decoding the telemetry stream of the
// Neato XV-11 spinning LIDAR in human-readable format.

package main

import (
	"os"

	"github.com/neatokit/lidarscope/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
