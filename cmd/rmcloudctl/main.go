// rmcloudctl is the administrative CLI. It operates on the same data
// directory as a running server but holds its own in-memory copy of the
// stores: a mutation made here is not visible to the server until it
// restarts. See DESIGN.md for the coordination model.
package main

import (
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"

	"github.com/rmcloud-dev/rmcloud/internal/config"
	"github.com/rmcloud-dev/rmcloud/internal/setup"
)

type options struct {
	ConfigPath string `short:"c" long:"config-path" value-name:"FILE" default:"./config.toml" description:"path to the config file"`

	User userCommand `command:"user" description:"manage users and access codes"`
}

var opts options

// loadStores builds fresh store instances from the configured data dir.
func loadStores() (*setup.Stores, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	return setup.NewStores(cfg)
}

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
			// usage errors are already printed by the parser
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
