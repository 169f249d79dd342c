package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"swipefeed/db"
)

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Run database migrations",
		Description: `Creates the profile and interaction tables and the activity
procedure. The ranking procedure is owned by the database team and is not
part of these migrations.`,
		Flags: dbFlags(),
		Action: func(ctx *cli.Context) error {
			cfg := connectionConfig(ctx)
			log.WithFields(log.Fields{
				"host": cfg.Host,
				"port": cfg.Port,
				"name": cfg.Name,
			}).Info("Database configured")
			return db.Migrate(cfg)
		},
	}
}

func rollbackCmd() *cli.Command {
	return &cli.Command{
		Name:        "rollback",
		Usage:       "Rollback database migration",
		Description: `Rolls back the last database migration`,
		Flags:       dbFlags(),
		Action: func(ctx *cli.Context) error {
			cfg := connectionConfig(ctx)
			log.WithFields(log.Fields{
				"host": cfg.Host,
				"port": cfg.Port,
				"name": cfg.Name,
			}).Info("Database configured")
			return db.Rollback(cfg)
		},
	}
}
