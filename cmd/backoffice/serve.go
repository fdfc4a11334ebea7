package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/baseplate/backoffice/internal/api"
	"github.com/baseplate/backoffice/internal/api/handlers"
	"github.com/baseplate/backoffice/internal/logging"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "port",
				Usage: "Listen port (overrides SERVER_PORT)",
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "Replace stored records with N generated records per module before serving",
			},
		},
		Action: serve,
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	log := logging.For("server")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if port := cmd.String("port"); port != "" {
		cfg.Server.Port = port
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Infof("connected to %s database", cfg.Database.Driver)

	catalog, err := newCatalog(cfg, db)
	if err != nil {
		return err
	}
	if n := cmd.Int("seed"); n > 0 {
		if err := catalog.Seed(ctx, n, 1); err != nil {
			return err
		}
		log.Infof("seeded %d records per module", n)
	} else if err := catalog.LoadAll(ctx); err != nil {
		return err
	}

	router := api.NewRouter(handlers.NewModuleHandler(catalog.Registry, handlers.BindCatalog(catalog)...), cfg.CORS)
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router.Handler(cfg.Server.Mode),
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Infof("starting server on port %s", cfg.Server.Port)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Infof("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
