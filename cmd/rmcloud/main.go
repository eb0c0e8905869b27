package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flags "github.com/jessevdk/go-flags"

	"github.com/rmcloud-dev/rmcloud/internal/config"
	"github.com/rmcloud-dev/rmcloud/internal/logger"
	"github.com/rmcloud-dev/rmcloud/internal/server"
	"github.com/rmcloud-dev/rmcloud/internal/setup"
)

const banner = `
            _                 _
  _ __ __ _| |__   ___  _   _| |__
 | '__/ _' | '_ \ / _ \| | | | '_ \
 | | | | | | |_) | (_) | |_| | |_) |
 |_| |_| |_|_.__/ \___/ \__,_|_.__/   rmcloud - self-hosted tablet sync
`

type options struct {
	ConfigPath string `short:"c" long:"config-path" value-name:"FILE" default:"./config.toml" description:"path to the config file"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	fmt.Print(banner)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	logger.Initialize(cfg.Common.LogLevel, false)

	deps, err := setup.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, cfg, deps.Router, deps.Stores.Codes); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
