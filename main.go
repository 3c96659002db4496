// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package main

import (
	"os"

	"github.com/hearthwire/otgw/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
