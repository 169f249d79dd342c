package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"swipefeed/db"
)

func dbFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db-host",
			Usage:   "PostgreSQL host",
			EnvVars: []string{"SWIPEFEED_DB_HOST"},
			Value:   "localhost",
		},
		&cli.IntFlag{
			Name:    "db-port",
			Usage:   "PostgreSQL port",
			EnvVars: []string{"SWIPEFEED_DB_PORT"},
			Value:   5432,
		},
		&cli.StringFlag{
			Name:    "db-user",
			Usage:   "PostgreSQL user",
			EnvVars: []string{"SWIPEFEED_DB_USER"},
			Value:   "swipefeed",
		},
		&cli.StringFlag{
			Name:    "db-password",
			Usage:   "PostgreSQL password",
			EnvVars: []string{"SWIPEFEED_DB_PASSWORD"},
			Value:   "swipefeed",
		},
		&cli.StringFlag{
			Name:    "db-name",
			Usage:   "PostgreSQL database name",
			EnvVars: []string{"SWIPEFEED_DB_NAME"},
			Value:   "swipefeed",
		},
		&cli.StringFlag{
			Name:    "db-sslmode",
			Usage:   "PostgreSQL sslmode (disable, require, verify-full)",
			EnvVars: []string{"SWIPEFEED_DB_SSLMODE"},
			Value:   "disable",
		},
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to TOML configuration file. Built-in defaults are used when empty",
		EnvVars: []string{"SWIPEFEED_CONFIG"},
	}
}

func jwtSecretFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "jwt-secret",
		Usage:   "HMAC secret used to sign session tokens",
		EnvVars: []string{"SWIPEFEED_JWT_SECRET"},
	}
}

func connectionConfig(ctx *cli.Context) db.ConnectionConfig {
	return db.ConnectionConfig{
		Host:     ctx.String("db-host"),
		Port:     ctx.Int("db-port"),
		User:     ctx.String("db-user"),
		Password: ctx.String("db-password"),
		Name:     ctx.String("db-name"),
		SSLMode:  ctx.String("db-sslmode"),
	}
}

// setupLogging configures logrus from the global flags
func setupLogging(ctx *cli.Context) error {
	level, err := log.ParseLevel(ctx.String("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)

	switch ctx.String("log-format") {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid log format %q", ctx.String("log-format"))
	}

	// Keep stdout free for command output
	log.SetOutput(os.Stderr)
	return nil
}
