package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"tg-antijudi/internal/admin"
)

var errUsage = errors.New("invalid arguments")

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "antijudictl",
		Usage: "Administrative console for the AntiJudi bot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Value:   "http://127.0.0.1:8090",
				Usage:   "Base URL of the admin API",
				Sources: cli.EnvVars("ANTIJUDI_SERVER"),
			},
			&cli.StringFlag{
				Name:    "token",
				Aliases: []string{"t"},
				Usage:   "Bearer token of the admin API",
				Sources: cli.EnvVars("ANTIJUDI_TOKEN"),
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 30 * time.Second,
				Usage: "Request timeout",
			},
		},
		Commands: []*cli.Command{
			listCommand("groups", "List active groups"),
			logCommand("violations", "List violating messages per user"),
			logCommand("clean", "List clean messages per user"),
			listCommand("mutes", "List active mutes"),
			listCommand("bans", "List banned users"),
			listCommand("verified", "List verified users"),
			{
				Name:  "stats",
				Usage: "Show totals, per-group counts and the violation trend",
				Action: func(ctx context.Context, c *cli.Command) error {
					return printResult(client(c).Stats(ctx))
				},
			},
			{
				Name:      "user",
				Usage:     "Show everything recorded about a user",
				ArgsUsage: "<user-id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := userArg(c)
					if err != nil {
						return err
					}
					return printResult(client(c).User(ctx, id))
				},
			},
			{
				Name:      "reclassify",
				Usage:     "Move messages between the violating and clean logs",
				ArgsUsage: "<user-id> <message-id>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "group",
						Aliases:  []string{"g"},
						Usage:    "Group id the messages were sent in",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "target",
						Value: "violating",
						Usage: "Destination log (violating or clean)",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := userArg(c)
					if err != nil {
						return err
					}
					groupID, err := strconv.ParseInt(c.String("group"), 10, 64)
					if err != nil {
						return fmt.Errorf("%w: group id %q", errUsage, c.String("group"))
					}
					var messageIDs []int
					for _, arg := range c.Args().Slice()[1:] {
						mid, err := strconv.Atoi(arg)
						if err != nil {
							return fmt.Errorf("%w: message id %q", errUsage, arg)
						}
						messageIDs = append(messageIDs, mid)
					}
					return printResult(client(c).Reclassify(ctx, id, groupID, messageIDs, c.String("target")))
				},
			},
			{
				Name:      "message",
				Usage:     "Send a direct message to a user",
				ArgsUsage: "<user-id> <text>...",
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := userArg(c)
					if err != nil {
						return err
					}
					text := strings.Join(c.Args().Slice()[1:], " ")
					return printResult(client(c).SendMessage(ctx, id, text))
				},
			},
			sanctionCommand("mute", "mute", true, "Mute a user in every active group"),
			sanctionCommand("unmute", "mute", false, "Lift a user's mute"),
			sanctionCommand("ban", "ban", true, "Ban a user from every active group"),
			sanctionCommand("unban", "ban", false, "Lift a user's ban"),
		},
	}

	return app.Run(context.Background(), os.Args)
}

func client(c *cli.Command) *admin.Client {
	return admin.NewClient(c.String("server"), c.String("token"), c.Duration("timeout"))
}

func userArg(c *cli.Command) (int64, error) {
	if c.NArg() < 1 {
		return 0, fmt.Errorf("%w: user id is required", errUsage)
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: user id %q", errUsage, c.Args().First())
	}
	return id, nil
}

func listCommand(name, usage string) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Action: func(ctx context.Context, c *cli.Command) error {
			return printResult(client(c).List(ctx, name))
		},
	}
}

func logCommand(name, usage string) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "group",
				Aliases: []string{"g"},
				Usage:   "Only messages sent in this group id",
			},
			&cli.StringFlag{
				Name:    "date",
				Aliases: []string{"d"},
				Usage:   "Only messages sent on this day (YYYY-MM-DD, WIB)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return printResult(client(c).Logs(ctx, name, c.String("group"), c.String("date")))
		},
	}
}

func sanctionCommand(name, kind string, apply bool, usage string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<user-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := userArg(c)
			if err != nil {
				return err
			}
			return printResult(client(c).Sanction(ctx, id, kind, apply))
		},
	}
}

func printResult(data []byte, err error) error {
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		_, err = os.Stdout.Write(data)
		return err
	}
	out.WriteByte('\n')
	_, err = out.WriteTo(os.Stdout)
	return err
}
