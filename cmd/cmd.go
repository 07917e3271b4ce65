// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/rewrapped/internal/models"
	"github.com/urfave/cli/v3"
)

// serveCommand runs the web app
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web app",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to listen on (default: server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (default: server.port)",
			},
			&cli.StringFlag{
				Name:  "driver",
				Usage: "Session store: memory, sqlite or redis (default: session.driver)",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write an example config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the session database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

func reportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "time-range",
			Aliases: []string{"t"},
			Usage:   "short_term, medium_term or long_term",
			Value:   string(models.ShortTerm),
		},
		&cli.IntFlag{
			Name:    "num",
			Aliases: []string{"n"},
			Usage:   "Rows to show (default: stats.default_num)",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output the report as JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
		&cli.BoolFlag{
			Name:  "plain",
			Usage: "Output an unstyled list",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the report as CSV to this file",
		},
	}
}

// statsCommand prints reports in the terminal after a one-shot browser login
func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Listening statistics in the terminal",
		Commands: []*cli.Command{
			{
				Name:   "tracks",
				Usage:  "Top tracks with audio features and histograms",
				Flags:  reportFlags(),
				Action: r.StatsTracks,
			},
			{
				Name:   "artists",
				Usage:  "Top artists and the most common genre words",
				Flags:  reportFlags(),
				Action: r.StatsArtists,
			},
			{
				Name:  "export",
				Usage: "Export a report for every time range as CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "kind",
						Usage: "tracks or artists",
						Value: string(models.SearchTracks),
					},
					&cli.IntFlag{
						Name:    "num",
						Aliases: []string{"n"},
						Usage:   "Rows per report (default: stats.default_num)",
					},
					&cli.StringFlag{
						Name:    "output-dir",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: rewrapped_export_{timestamp})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent report builds",
						Value: 3,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Report builds per second",
						Value: 2,
					},
				},
				Action: r.StatsExport,
			},
		},
	}
}
