package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/handsomefox/kemonodl/api"
	"github.com/handsomefox/kemonodl/internal/interrupt"
	"github.com/handsomefox/kemonodl/internal/logging"
	"github.com/rs/zerolog/log"
)

const (
	exitOK          = 0
	exitAborted     = 1
	exitInvalidArgs = 2
)

func main() {
	var args AppArguments
	p, err := arg.NewParser(arg.Config{Program: "kemonodl"}, &args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitInvalidArgs)
	}
	if err := p.Parse(os.Args[1:]); err != nil {
		switch {
		case errors.Is(err, arg.ErrHelp):
			p.WriteHelp(os.Stdout)
			os.Exit(exitOK)
		default:
			fail(p, err.Error())
		}
	}

	target, err := api.ParseTarget(args.URL)
	if err != nil {
		fail(p, err.Error())
	}
	cfg, err := loadConfig(&args)
	if err != nil {
		fail(p, err.Error())
	}

	logging.Setup(cfg.Verbose)
	log.Debug().Any("config", cfg).Str("target", args.URL).Send()

	app, err := NewApp(cfg, target)
	if err != nil {
		fail(p, err.Error())
	}

	ctx, _, stop := interrupt.Notify(context.Background())
	err = app.Run(ctx)
	stop()

	if err != nil {
		log.Error().Err(err).Msg("download aborted")
		os.Exit(exitAborted)
	}
	os.Exit(exitOK)
}

// fail prints the usage and the error and exits with exitInvalidArgs.
func fail(p *arg.Parser, msg string) {
	p.WriteUsage(os.Stderr)
	fmt.Fprintln(os.Stderr, "error:", msg)
	os.Exit(exitInvalidArgs)
}
