package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/baseplate/backoffice/internal/storage"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Run database migrations",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "status",
				Usage: "Show the schema version without applying migrations",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db, err := storage.NewClient(&cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if cmd.Bool("status") {
				v, err := db.CurrentVersion(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("schema version: %s\n", v)
				return nil
			}

			applied, err := db.Migrate(ctx)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Println("schema is up to date")
			}
			for _, v := range applied {
				fmt.Printf("applied %s\n", v)
			}
			return nil
		},
	}
}
