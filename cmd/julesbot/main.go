package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"

	"github.com/montelibero/julesbot/internal/cli"
	"github.com/montelibero/julesbot/internal/config"
)

func main() {
	// Load configuration from files/environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	// One-shot commands default to a table on a terminal and NDJSON
	// when piped, so agents and scripts get machine-readable output.
	defaultFormat := "ndjson"
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		defaultFormat = "text"
	}

	var c cli.CLI
	ctx := kong.Parse(&c,
		kong.Name("julesbot"),
		kong.Description("Telegram bot for monitoring Jules sessions"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Vars{
			"config_format": defaultFormat,
		},
	)

	globals := cli.NewGlobalsWithConfig(&c, cfg)
	if err := ctx.Run(globals); err != nil {
		os.Exit(1)
	}
}
