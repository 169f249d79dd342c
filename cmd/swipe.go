package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cqroot/prompt"
	"github.com/urfave/cli/v2"

	"swipefeed/client"
	"swipefeed/controller"
	"swipefeed/feeds"
	"swipefeed/models"
)

const (
	choiceLike    = "Me gusta"
	choiceDislike = "No me gusta"
	choiceRetry   = "Reintentar"
	choiceQuit    = "Salir"
)

func swipeCmd() *cli.Command {
	return &cli.Command{
		Name:  "swipe",
		Usage: "Swipe through the feed from the terminal",
		Description: `Connects to a running swipefeed API and shows candidates one
at a time. Use the token command to get a bearer token for local testing.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Usage:   "Base URL of the swipefeed API",
				EnvVars: []string{"SWIPEFEED_API"},
				Value:   "http://localhost:3000",
			},
			&cli.StringFlag{
				Name:     "token",
				Aliases:  []string{"t"},
				Usage:    "Bearer token",
				EnvVars:  []string{"SWIPEFEED_TOKEN"},
				Required: true,
			},
			&cli.IntFlag{
				Name:  "page-size",
				Usage: "Candidates requested per page",
				Value: 20,
			},
			&cli.IntFlag{
				Name:  "retries",
				Usage: "Retries for failed feed requests",
				Value: 3,
			},
		},
		Action: func(ctx *cli.Context) error {
			api := client.New(ctx.String("api"), client.StaticToken(ctx.String("token")), ctx.Int("retries"))
			feed := controller.New(api, controller.Config{
				PageSize:          ctx.Int("page-size"),
				PrefetchThreshold: 3,
			})
			defer feed.Close()

			// Errors are reflected in the snapshot
			_ = feed.Start(ctx.Context)

			for {
				state := feed.Snapshot()

				if state.Status == controller.StatusError {
					fmt.Println("Error al cargar el feed:", state.Err)
					choice, err := prompt.New().Ask("¿Qué quieres hacer?").Choose([]string{choiceRetry, choiceQuit})
					if err != nil {
						return err
					}
					if choice == choiceQuit {
						return nil
					}
					_ = feed.Retry(ctx.Context)
					continue
				}

				if len(state.Items) == 0 {
					if state.HasNextPage {
						_ = feed.FetchNextPage(ctx.Context)
						continue
					}
					fmt.Println("No hay más perfiles por ahora")
					return nil
				}

				current := state.Items[0]
				fmt.Println(describeCandidate(current))

				choice, err := prompt.New().Ask("¿Te gusta?").Choose([]string{choiceLike, choiceDislike, choiceQuit})
				if err != nil {
					if errors.Is(err, prompt.ErrUserQuit) {
						return nil
					}
					return err
				}

				switch choice {
				case choiceLike:
					err = feed.Like(ctx.Context, current.UserID)
				case choiceDislike:
					err = feed.Dislike(ctx.Context, current.UserID)
				case choiceQuit:
					return nil
				}
				if err != nil {
					fmt.Println("No se pudo registrar la interacción:", err)
				}

				// Only the top card is visible
				_ = feed.RequestMore(ctx.Context, 0)
			}
		},
	}
}

func describeCandidate(p models.CandidateProfile) string {
	var b strings.Builder

	b.WriteString(p.Name)
	if p.Age != nil {
		fmt.Fprintf(&b, ", %d", *p.Age)
	}
	b.WriteString("\n")

	if location := feeds.FormatLocation(p); location != "" {
		b.WriteString(location + "\n")
	}
	if work := feeds.FormatProfessionalInfo(p); work != "" {
		b.WriteString(work + "\n")
	}
	if p.Bio != nil && *p.Bio != "" {
		b.WriteString(*p.Bio + "\n")
	}
	if len(p.Interests) > 0 {
		b.WriteString(strings.Join(p.Interests, " · ") + "\n")
	}
	if photo, ok := feeds.PrimaryPhoto(p); ok {
		fmt.Fprintf(&b, "%s (%d fotos)\n", photo, len(feeds.AllPhotos(p)))
	}

	return b.String()
}
