package cmd

import (
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "swipefeed",
		Usage: "A ranked swipe feed of dating candidates",
		Description: `Serves a paginated, ranked feed of candidate profiles and
		records like/dislike decisions.

		Ranking is delegated to a stored procedure in PostgreSQL. When the
		procedure is missing or not executable a degraded feed is served
		from the profile tables directly.

		Flags can generally be set via environment variables, e.g.:

		--db-host => SWIPEFEED_DB_HOST=localhost
		--port => SWIPEFEED_PORT=3000
		`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (trace, debug, info, warn, error)",
				EnvVars: []string{"SWIPEFEED_LOG_LEVEL"},
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text or json)",
				EnvVars: []string{"SWIPEFEED_LOG_FORMAT"},
				Value:   "text",
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			rollbackCmd(),
			tidyCmd(),
			tokenCmd(),
			swipeCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}
