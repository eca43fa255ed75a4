// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/nearwork/nearwork/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
