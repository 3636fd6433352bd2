//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Run builds the CLI and executes one pipeline pass with the local config.
func Run() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "run")
}

// Diagnose builds the CLI and checks each stage without sending mail.
func Diagnose() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "diagnose")
}

// TestEmail builds the CLI and sends a test message to the recipient.
func TestEmail() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "send-test-email")
}

// Serve builds the CLI and starts the daily scheduler in the foreground.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "serve")
}
