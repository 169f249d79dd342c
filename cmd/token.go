package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/cqroot/prompt"
	"github.com/urfave/cli/v2"

	"swipefeed/auth"
	"swipefeed/config"
)

func tokenCmd() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Mint a development bearer token",
		Description: `Signs a bearer token for a user id with the configured secret
and audience, the same way the auth provider does.

Prompts for the user id when --user is not given. Prints the token to stdout.`,
		Flags: []cli.Flag{
			configFlag(),
			jwtSecretFlag(),
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "User id (uuid) to put in the token subject",
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "Token lifetime",
				Value: 24 * time.Hour,
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := config.LoadConfig(ctx.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			secret := ctx.String("jwt-secret")
			if secret == "" {
				return errors.New("jwt-secret is required")
			}

			userID := ctx.String("user")
			if userID == "" {
				userID, err = prompt.New().Ask("User id:").Input("00000000-0000-0000-0000-000000000000")
				if err != nil {
					return err
				}
			}

			token, err := auth.IssueToken(secret, userID, cfg.Auth.Audience, ctx.Duration("ttl"))
			if err != nil {
				return err
			}

			fmt.Println(token)
			return nil
		},
	}
}
