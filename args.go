package main

import (
	"time"

	"github.com/handsomefox/kemonodl/config"
)

type AppArguments struct {
	URL        string `arg:"positional,required" help:"creator url (https://kemono.su/<service>/user/<id>) or post url (.../post/<id>)"`
	ConfigFile string `arg:"--config" help:"path to a YAML config file"`

	OutputDir      string        `arg:"-o,--output-dir" help:"directory to download into [default: ./download]"`
	MaxConcurrency int           `arg:"-p,--max-concurrency" help:"number of files of a post downloaded at once [default: 4]"`
	StallTimeout   time.Duration `arg:"--stall-timeout" help:"abandon a download when no data arrives for this long [default: 10s]"`

	TitleWhitelist []string `arg:"--title-whitelist,separate" help:"only download posts whose title matches every pattern"`
	TitleBlacklist []string `arg:"--title-blacklist,separate" help:"skip posts whose title matches every pattern"`
	FileWhitelist  []string `arg:"--file-whitelist,separate" help:"only download files whose name matches every pattern"`
	FileBlacklist  []string `arg:"--file-blacklist,separate" help:"skip files whose name matches every pattern"`

	VerboseLogging  bool `arg:"-v,--verbose" help:"enable debug logging"`
	ProgressLogging bool `arg:"--progress" help:"periodically log download progress"`
}

func (AppArguments) Description() string {
	return "kemonodl downloads every post of a creator, or a single post, with resumable downloads.\n"
}

func (AppArguments) Epilogue() string {
	return "Interrupt once to stop after the current chunk of every download, twice to exit immediately."
}

// Config returns the values set on the command line.
// Unset flags are zero and are ignored by config.Config.Merge.
func (args *AppArguments) Config() config.Config {
	return config.Config{
		OutputDir:    args.OutputDir,
		Concurrency:  args.MaxConcurrency,
		StallTimeout: args.StallTimeout,
		Progress:     args.ProgressLogging,
		Verbose:      args.VerboseLogging,
		Filters: config.Filters{
			TitleWhitelist: args.TitleWhitelist,
			TitleBlacklist: args.TitleBlacklist,
			FileWhitelist:  args.FileWhitelist,
			FileBlacklist:  args.FileBlacklist,
		},
	}
}

// loadConfig layers the defaults, the config file, the environment and the flags.
func loadConfig(args *AppArguments) (config.Config, error) {
	cfg := config.Default()
	if args.ConfigFile != "" {
		var err error
		if cfg, err = config.LoadFile(args.ConfigFile); err != nil {
			return config.Config{}, err
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return config.Config{}, err
	}
	cfg = cfg.Merge(args.Config())
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
