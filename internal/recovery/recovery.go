// internal/recovery/recovery.go
// Package recovery turns panics in main or worker goroutines into a logged
// report and a clean exit, after running any cleanup (spooled assets, audio
// devices) the caller registers.
package recovery

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
)

var (
	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

// HandlePanic should be deferred at the top of main() or goroutines.
// It logs panic details and exits with code 1.
func HandlePanic() {
	if r := recover(); r != nil {
		report(r)
		exit(1)
	}
}

// HandlePanicFunc logs panic details, calls cleanup and exits with code 1.
// A panic inside cleanup is reported but does not stop the exit.
func HandlePanicFunc(cleanup func()) {
	if r := recover(); r != nil {
		report(r)
		runCleanup(cleanup)
		exit(1)
	}
}

func report(r any) {
	stack := debug.Stack()
	_, _ = fmt.Fprintf(stderr, "FATAL: %v\n\nStack trace:\n%s\n", r, stack)
	slog.Error("panic", "value", fmt.Sprint(r))
}

func runCleanup(cleanup func()) {
	if cleanup == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			_, _ = fmt.Fprintf(stderr, "cleanup panicked: %v\n", r)
		}
	}()
	cleanup()
}

// Usage in goroutines (with cleanup):
//go func() {
//	defer recovery.HandlePanicFunc(spool.Cleanup)
//	d.Run(ctx)
//}()
