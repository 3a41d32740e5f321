// SPDX-License-Identifier: MPL-2.0

// Package main is the entry point for the corky CLI.
package main

import cmd "github.com/corky/corky/cmd/corky"

func main() {
	cmd.Execute()
}
