package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Dosada05/swiss-tournament/brackets"
	"github.com/Dosada05/swiss-tournament/db"
	"github.com/Dosada05/swiss-tournament/simulation"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "swissctl",
		Usage:  "Swiss tournament maintenance and simulation",
		Writer: out,
		Commands: []*cli.Command{
			newMigrateCommand(),
			newSimulateCommand(),
			newRoundsCommand(),
		},
	}
}

func newMigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply the database schema",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "database-url", EnvVars: []string{"DATABASE_URL"}, Required: true},
			&cli.DurationFlag{Name: "timeout", Value: 5 * time.Second},
		},
		Action: func(c *cli.Context) error {
			conn, err := db.Connect(c.Context, c.String("database-url"), c.Duration("timeout"))
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := db.Migrate(c.Context, conn); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "schema applied")
			return nil
		},
	}
}

func newSimulateCommand() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "play a full tournament in memory with random results",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "players", Aliases: []string{"n"}, Value: 8},
			&cli.Int64Flag{Name: "seed", Usage: "random seed, defaults to the current time"},
			&cli.BoolFlag{Name: "json", Usage: "print the full report as JSON"},
			&cli.BoolFlag{Name: "verbose", Usage: "log forced rematches and byes"},
		},
		Action: func(c *cli.Context) error {
			seed := c.Int64("seed")
			if !c.IsSet("seed") {
				seed = time.Now().UnixNano()
			}

			level := slog.LevelError
			if c.Bool("verbose") {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			report, err := simulation.Run(simulation.Config{
				Players: c.Int("players"),
				Seed:    seed,
				Logger:  logger,
			})
			if err != nil {
				return err
			}

			if c.Bool("json") {
				enc := json.NewEncoder(c.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return printReport(c.App.Writer, report, seed)
		},
	}
}

func newRoundsCommand() *cli.Command {
	return &cli.Command{
		Name:  "rounds",
		Usage: "print the number of rounds needed for a field",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "players", Aliases: []string{"n"}, Required: true},
		},
		Action: func(c *cli.Context) error {
			rounds, err := brackets.RoundsRequired(c.Int("players"))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, rounds)
			return nil
		},
	}
}

func printReport(w io.Writer, report *simulation.Report, seed int64) error {
	fmt.Fprintf(w, "%d players, %d rounds, seed %d\n", report.Players, len(report.Rounds), seed)
	for _, round := range report.Rounds {
		fmt.Fprintf(w, "\nRound %d\n", round.Round)
		for _, p := range round.Pairs {
			mark := ""
			if p.Rematch {
				mark = " (rematch)"
			}
			fmt.Fprintf(w, "  %s vs %s%s\n", p.Player1Name, p.Player2Name, mark)
		}
		if round.Bye != nil {
			fmt.Fprintf(w, "  bye: %s\n", round.Bye.Name)
		}
	}

	fmt.Fprintln(w, "\nFinal standings")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPLAYER\tWINS\tPLAYED\tOMW")
	for i, row := range report.Final {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\n", i+1, row.Name, row.Wins, row.MatchesPlayed, row.OMWValue())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if report.Winner != nil {
		how := "on wins"
		if report.Winner.ByTiebreak {
			how = "on OMW tiebreak"
		}
		fmt.Fprintf(w, "\nWinner: %s (%s)\n", report.Winner.Player.Name, how)
	} else {
		fmt.Fprintln(w, "\nNo winner by tiebreak")
	}
	return nil
}
