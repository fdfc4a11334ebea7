package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "backoffice",
		Usage: "Back-office query service for users, vendors, products, transactions and orders",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "TOML configuration file (environment variables are read first)",
				Sources: cli.EnvVars("BACKOFFICE_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			seedCommand(),
			queryCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
