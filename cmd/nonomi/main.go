package main

import (
	"context"
	"fmt"
	"nonomi/internal/di"
	"nonomi/internal/structures"
	"os"

	"github.com/spf13/pflag"
)

func main() {
	flags := &structures.CliFlags{}
	pflag.StringVarP(&flags.ConfigPath, "config", "c", "configs/config.yaml", "path to the yaml config file")
	pflag.BoolVarP(&flags.DebugMode, "debug", "d", false, "mirror logs to the console")
	pflag.Parse()

	app, cleanup, err := di.InitApp(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init: %s\n", err)
		os.Exit(1)
	}

	err = app.Run(context.Background())
	cleanup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: %s\n", err)
		os.Exit(1)
	}
}
