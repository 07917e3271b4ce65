package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rewrapped/internal/services"
	"github.com/desertthunder/rewrapped/internal/shared"
	"github.com/desertthunder/rewrapped/internal/stats"
	"github.com/desertthunder/rewrapped/internal/tasks"
	"github.com/desertthunder/rewrapped/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	spotify     services.Service
	logger      *log.Logger
	output      io.Writer
	palette     *ui.Palette
	engine      *tasks.ReportEngine
	openBrowser func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Spotify     services.Service
	Logger      *log.Logger
	Output      io.Writer
	Palette     *ui.Palette
	OpenBrowser func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Palette == nil {
		opts.Palette = ui.DefaultPalette
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	r := &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		spotify:     opts.Spotify,
		logger:      opts.Logger,
		output:      opts.Output,
		palette:     opts.Palette,
		openBrowser: opts.OpenBrowser,
	}
	if opts.Spotify != nil {
		r.engine = tasks.NewReportEngine(opts.Spotify, reportOpts(opts.Config))
	}
	return r
}

// reportOpts maps the [stats] and [spotify] sections onto [tasks.ReportOpts]. The config is validated beforehand.
func reportOpts(config *shared.Config) tasks.ReportOpts {
	order, err := stats.ParseGenreOrder(config.Stats.GenreOrder)
	if err != nil {
		order = stats.OrderAscending
	}
	return tasks.ReportOpts{
		TopLimit:    config.Spotify.TopLimit,
		StrictMerge: config.Stats.StrictMerge,
		GenreOrder:  order,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, statsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
