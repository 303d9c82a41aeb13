// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 OpenVESC contributors
//
// vescli - VESC Express command-line client
//
// A CLI tool for talking to VESC Express devices: liveness checks, version
// queries, terminal commands, traffic monitoring, and firmware updates.

package main

import (
	"os"

	"github.com/openvesc/vescli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
