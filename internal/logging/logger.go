// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup points the global logger at stderr. Debug messages are only
// written when verbose is set.
func Setup(verbose bool) {
	log.Logger = New(os.Stderr, verbose)
}

// New returns a console logger writing to out. Colors are used only when out is a terminal.
func New(out *os.File, verbose bool) zerolog.Logger {
	var (
		w       io.Writer = out
		noColor           = !isTerminal(out)
		level             = zerolog.InfoLevel
	)
	if !noColor {
		w = colorable.NewColorable(out)
	}
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    noColor,
		TimeFormat: time.RFC3339,
	}).Level(level).With().Timestamp().Logger()
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
