package main

import (
	"os"
	"runtime/debug"

	"github.com/ilcsoft/mokkadump/internal/cli"
	"github.com/ilcsoft/mokkadump/internal/logging"
	"github.com/ilcsoft/mokkadump/pkg/mokka"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			logging.NewConsoleLogger(false).Error("panic: %v\n%s", r, debug.Stack())
			os.Exit(mokka.ExitPanic)
		}
	}()

	if os.Getenv("MOKKA_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(mokka.ExitCodeForError(err))
	}
}
