package main

import (
	"errors"
	"fmt"
	"os"

	"bugscan/api"
	"bugscan/cli"
	"bugscan/config"
	"bugscan/logging"
)

func main() {
	logging.Configure()

	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitConfig)
	}

	if len(os.Args) > 1 && os.Args[1] == "serve" {
		if err := api.Run(); err != nil {
			logging.Logger().Error("api server stopped", "error", err)
			if errors.Is(err, config.ErrInvalid) {
				os.Exit(cli.ExitConfig)
			}
			os.Exit(cli.ExitFatal)
		}
		return
	}

	os.Exit(cli.Run(os.Args[1:], os.Stdout, os.Stderr))
}
