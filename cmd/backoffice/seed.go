package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Replace stored records with generated demo data",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "count",
				Usage: "Records per module",
				Value: 50,
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "Random seed; the same seed always produces the same data",
				Value: 1,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db, err := openDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			catalog, err := newCatalog(cfg, db)
			if err != nil {
				return err
			}
			if err := catalog.Seed(ctx, cmd.Int("count"), cmd.Uint64("seed")); err != nil {
				return err
			}
			counts := []struct {
				name   string
				stored func(context.Context) (int, error)
			}{
				{catalog.Users.Name(), catalog.Users.Stored},
				{catalog.Vendors.Name(), catalog.Vendors.Stored},
				{catalog.Products.Name(), catalog.Products.Stored},
				{catalog.Transactions.Name(), catalog.Transactions.Stored},
				{catalog.Orders.Name(), catalog.Orders.Stored},
			}
			for _, c := range counts {
				n, err := c.stored(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("%-13s %d records\n", c.name, n)
			}
			return nil
		},
	}
}
