package main

import (
	"testing"
)

// TestMain_Imports verifies that the main package links the command tree.
func TestMain_Imports(t *testing.T) {
	// main() runs cmd.Execute, which exits the process on error, so the
	// commands themselves are exercised in the cmd package tests.
}
