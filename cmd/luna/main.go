// Package main provides the luna CLI tool.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

var version = "dev"

func main() {
	app := &cli.Command{
		Name:    "luna",
		Version: version,
		Usage:   "Static analysis for Lua with doc comment types",
		Commands: []*cli.Command{
			checkCommand(),
			symbolsCommand(),
			docCommand(),
		},
	}

	err := app.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
