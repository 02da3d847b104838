// Command tourctl exports tour itineraries from the backend and converts
// timestamps between the backend's UTC wire format and JST wall clock.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/tourbench/console/internal/backend"
	"github.com/tourbench/console/internal/jst"
	"github.com/tourbench/console/internal/plugins/itinerary"
	"github.com/tourbench/console/internal/plugins/tours"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		slog.Error("tourctl failed", "error", err)
		os.Exit(1)
	}
}

func newApp(stdout io.Writer) *cli.App {
	return &cli.App{
		Name:      "tourctl",
		Usage:     "Tour benchmark command line tools.",
		Writer:    stdout,
		ErrWriter: os.Stderr,
		Commands: []*cli.Command{
			exportCommand(),
			jstCommand(),
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a tour's itinerary or participant list.",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "tour", Usage: "Tour ID.", Required: true},
			&cli.StringFlag{Name: "format", Value: "ics", Usage: "ics, csv or participants."},
			&cli.StringFlag{Name: "out", Usage: "Output file. Defaults to stdout."},
			&cli.StringFlag{Name: "backend", EnvVars: []string{"BACKEND_URL"}, Value: "http://localhost:3001/api", Usage: "Backend API root."},
			&cli.StringFlag{Name: "token", EnvVars: []string{"BACKEND_TOKEN"}, Usage: "Bearer token of an admin account."},
			&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second, Usage: "Backend request timeout."},
			&cli.StringFlag{Name: "log-level", EnvVars: []string{"LOG_LEVEL"}, Value: "warn"},
		},
		Action: func(c *cli.Context) error {
			format := strings.ToLower(c.String("format"))
			if format != "ics" && format != "csv" && format != "participants" {
				return fmt.Errorf("unknown format %q, want ics, csv or participants", format)
			}
			if c.String("token") == "" {
				return fmt.Errorf("BACKEND_TOKEN is not set")
			}

			logger := setupLogger(c.String("log-level"))
			client := backend.New(strings.TrimRight(c.String("backend"), "/"), c.Duration("timeout"), logger).
				WithToken(c.String("token"))

			w := c.App.Writer
			if path := c.String("out"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("creating output: %w", err)
				}
				defer f.Close()
				w = f
			}

			tourID := c.Int64("tour")
			ctx := c.Context
			tour, err := client.GetTour(ctx, tourID)
			if err != nil {
				return fmt.Errorf("loading tour %d: %w", tourID, err)
			}

			if format == "participants" {
				participants, err := client.ListParticipants(ctx, tourID)
				if err != nil {
					return fmt.Errorf("loading participants: %w", err)
				}
				return tours.WriteParticipantsCSV(w, *tour, participants)
			}

			activities, err := client.ListActivities(ctx, tourID)
			if err != nil {
				return fmt.Errorf("loading activities: %w", err)
			}
			logger.Info("exporting itinerary", "tour", tour.Name, "activities", len(activities), "format", format)
			if format == "csv" {
				return itinerary.WriteCSV(w, activities)
			}
			return itinerary.WriteICS(w, *tour, activities, time.Now())
		},
	}
}

func jstCommand() *cli.Command {
	return &cli.Command{
		Name:  "jst",
		Usage: "Convert between UTC wire timestamps and JST wall clock.",
		Subcommands: []*cli.Command{
			{
				Name:      "to-local",
				Usage:     "Print the JST wall clock of a UTC instant.",
				ArgsUsage: "<2025-04-02T00:00:00Z>",
				Action: func(c *cli.Context) error {
					return convert(c, jst.UTCToJSTString)
				},
			},
			{
				Name:      "to-utc",
				Usage:     "Print the UTC instant of a JST wall clock time.",
				ArgsUsage: "<2025-04-02T09:00:00>",
				Action: func(c *cli.Context) error {
					return convert(c, jst.LocalToUTC)
				},
			},
		},
	}
}

func convert(c *cli.Context, fn func(string) (string, error)) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one timestamp, got %d", c.NArg())
	}
	out, err := fn(c.Args().First())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, out)
	return err
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
