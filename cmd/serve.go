package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"swipefeed/auth"
	"swipefeed/config"
	"swipefeed/db"
	"swipefeed/feeds"
	"swipefeed/query"
	"swipefeed/server"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the swipe feed API",
		Description: `Starts the HTTP server on the specified or default port.

Feed pages are read through the ranking procedure, falling back to a direct
profile query when the procedure is unavailable and the fallback is enabled.`,
		Flags: append(dbFlags(),
			configFlag(),
			jwtSecretFlag(),
			&cli.StringFlag{
				Name:    "host",
				Usage:   "Host to listen on",
				EnvVars: []string{"SWIPEFEED_HOST"},
				Value:   "0.0.0.0",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
				EnvVars: []string{"SWIPEFEED_PORT"},
				Value:   3000,
			},
		),
		Action: func(ctx *cli.Context) error {
			cfg, err := config.LoadConfig(ctx.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			policy, err := feeds.ParseValidationPolicy(cfg.Feed.Validation)
			if err != nil {
				return err
			}

			secret := ctx.String("jwt-secret")
			if secret == "" {
				return errors.New("jwt-secret is required")
			}

			sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			database, err := db.NewDB(sigCtx, connectionConfig(ctx))
			if err != nil {
				return err
			}
			defer database.Close()

			g, gctx := errgroup.WithContext(sigCtx)

			bumper := feeds.NewActivityBumper(gctx, database, cfg.Feed.ActivityProcedure, cfg.Feed.ActivityWorkers, cfg.Feed.ActivityQueueSize)
			bumper.Start()

			repository := feeds.NewRepository(feeds.RepositoryConfig{
				Source:       feedSource(database, cfg),
				Interactions: database,
				Activity:     bumper,
				Validation:   policy,
			})

			app := server.Server(&server.ServerConfig{
				Repository:   repository,
				Verifier:     auth.NewJWTVerifier(secret, cfg.Auth.Audience, cfg.Auth.Issuer),
				DefaultLimit: cfg.Feed.DefaultLimit,
				CorsOrigins:  cfg.Server.CorsOrigins,
				Health:       database,
			})

			g.Go(func() error {
				addr := fmt.Sprintf("%s:%d", ctx.String("host"), ctx.Int("port"))
				log.WithFields(log.Fields{
					"addr":       addr,
					"procedure":  cfg.Feed.RankingProcedure,
					"fallback":   cfg.Feed.FallbackEnabled,
					"validation": cfg.Feed.Validation,
				}).Info("Starting server")
				return app.Listen(addr)
			})

			g.Go(func() error {
				<-gctx.Done()
				log.Info("Gracefully shutting down...")
				err := app.ShutdownWithTimeout(60 * time.Second)
				bumper.Shutdown()
				return err
			})

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Info("Done!")
			return nil
		},
	}
}

// feedSource assembles the ranked source and, when enabled, the degraded
// fallback behind it
func feedSource(database *db.DB, cfg *config.TomlConfig) feeds.FeedSource {
	ranked := feeds.NewRankedSource(database, cfg.Feed.RankingProcedure)
	if !cfg.Feed.FallbackEnabled {
		return feeds.NewFallbackChain(ranked, nil)
	}

	builder := feeds.NewFallbackQueryBuilder(query.PlaceholderScores{
		Interest:  cfg.Feed.PlaceholderScores.Interest,
		Proximity: cfg.Feed.PlaceholderScores.Proximity,
		Activity:  cfg.Feed.PlaceholderScores.Activity,
	})
	builder.AddFilter(&feeds.ExcludeViewerFilter{})
	builder.AddFilter(&feeds.CompleteProfileFilter{})
	if cfg.Feed.FallbackExcludeSwiped {
		builder.AddFilter(&feeds.ExcludeSwipedFilter{})
	}

	return feeds.NewFallbackChain(ranked, feeds.NewFallbackSource(database, builder))
}
