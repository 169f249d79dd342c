package cmd

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"swipefeed/config"
	"swipefeed/db"
)

func tidyCmd() *cli.Command {
	return &cli.Command{
		Name:  "tidy",
		Usage: "Tidy up the database",
		Description: `Removes dislikes older than tidy.dislike_ttl_days so those
		profiles can show up in the feed again. Likes are kept.

		Can be run as a cron job.`,
		Flags: append(dbFlags(),
			configFlag(),
			&cli.IntFlag{
				Name:  "days",
				Usage: "Override tidy.dislike_ttl_days",
			},
		),
		Action: func(ctx *cli.Context) error {
			cfg, err := config.LoadConfig(ctx.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			days := cfg.Tidy.DislikeTTLDays
			if ctx.IsSet("days") {
				days = ctx.Int("days")
			}
			if days < 1 {
				return fmt.Errorf("days must be at least 1, got %d", days)
			}

			removed, err := db.Tidy(ctx.Context, connectionConfig(ctx), time.Duration(days)*24*time.Hour)
			if err != nil {
				return err
			}

			log.WithFields(log.Fields{
				"removed": removed,
				"days":    days,
			}).Info("Tidied dislikes")
			return nil
		},
	}
}
