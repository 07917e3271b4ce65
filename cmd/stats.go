package main

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/desertthunder/rewrapped/internal/formatter"
	"github.com/desertthunder/rewrapped/internal/models"
	"github.com/desertthunder/rewrapped/internal/server"
	"github.com/desertthunder/rewrapped/internal/session"
	"github.com/desertthunder/rewrapped/internal/shared"
	"github.com/desertthunder/rewrapped/internal/tasks"
	"github.com/urfave/cli/v3"
)

// cliSession is the session id under which the terminal login is stored.
const cliSession = "cli"

// AuthTimeout bounds how long the CLI waits for the browser login.
const AuthTimeout = 2 * time.Minute

// StatsTracks prints the top tracks report.
func (r *Runner) StatsTracks(ctx context.Context, cmd *cli.Command) error {
	tr, num, err := r.reportArgs(cmd)
	if err != nil {
		return err
	}

	token, err := r.login(ctx)
	if err != nil {
		return err
	}

	progress, wait := r.watch()
	report, err := r.engine.Tracks(ctx, progress, token, tr, num)
	wait()
	if err != nil {
		return fmt.Errorf("failed to build tracks report: %w", err)
	}

	if path := cmd.String("output"); path != "" {
		data, err := formatter.TracksToCSV(report.Rows)
		if err != nil {
			return err
		}
		return r.saveReport(path, data, len(report.Rows))
	}

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(report, cmd.Bool("pretty"))
	case cmd.Bool("plain"):
		_, err := r.output.Write(formatter.TracksToText("Top tracks: "+tr.Label(), report.Rows))
		return err
	}

	r.writePlain("%s\n", r.palette.Title("Top tracks: "+tr.Label()))
	for _, c := range report.Charts {
		r.writePlain("%s\n", r.palette.Chart(c))
	}
	r.writePlain("%s\n", r.palette.Tracks(report.Rows))
	r.writePlain("%s\n", r.palette.Help(fmt.Sprintf("%d of %d tracks have audio features", len(report.Merged), len(report.Tracks))))
	return nil
}

// StatsArtists prints the top artists report.
func (r *Runner) StatsArtists(ctx context.Context, cmd *cli.Command) error {
	tr, num, err := r.reportArgs(cmd)
	if err != nil {
		return err
	}

	token, err := r.login(ctx)
	if err != nil {
		return err
	}

	progress, wait := r.watch()
	report, err := r.engine.Artists(ctx, progress, token, tr, num)
	wait()
	if err != nil {
		return fmt.Errorf("failed to build artists report: %w", err)
	}

	if path := cmd.String("output"); path != "" {
		data, err := formatter.GenresToCSV(report.Genres)
		if err != nil {
			return err
		}
		return r.saveReport(path, data, len(report.Genres))
	}

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(report, cmd.Bool("pretty"))
	case cmd.Bool("plain"):
		_, err := r.output.Write(formatter.GenresToText("Top genre words: "+tr.Label(), report.Genres))
		return err
	}

	r.writePlain("%s\n", r.palette.Title("Top genre words: "+tr.Label()))
	r.writePlain("%s\n", r.palette.Genres(report.Genres))
	r.writePlain("%s\n", r.palette.Help(fmt.Sprintf("from %d artists", len(report.Artists))))
	return nil
}

// StatsExport writes a CSV per time range plus a manifest.
func (r *Runner) StatsExport(ctx context.Context, cmd *cli.Command) error {
	kind := models.SearchKind(cmd.String("kind"))
	if kind != models.SearchTracks && kind != models.SearchArtists {
		return fmt.Errorf("%w: --kind must be tracks or artists, got %q", shared.ErrInvalidArgument, kind)
	}

	num := cmd.Int("num")
	if num <= 0 {
		num = r.config.Stats.DefaultNum
	}

	token, err := r.login(ctx)
	if err != nil {
		return err
	}

	progress, wait := r.watch()
	result, err := r.engine.Export(ctx, progress, token, tasks.ExportOpts{
		Kind:       kind,
		Num:        num,
		OutputDir:  cmd.String("output-dir"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	})
	wait()
	if result != nil {
		for _, res := range result.Results {
			if res.Error != "" {
				r.writePlain("%s %s: %s\n", r.palette.Err("✗"), res.TimeRange.Label(), res.Error)
				continue
			}
			r.writePlain("%s %s: %d rows → %s\n", r.palette.OK("✓"), res.TimeRange.Label(), res.Rows, res.File)
		}
		if result.ManifestPath != "" {
			r.writePlain("%s\n", r.palette.Help("manifest: "+result.ManifestPath))
		}
	}
	return err
}

func (r *Runner) reportArgs(cmd *cli.Command) (models.TimeRange, int, error) {
	tr, err := models.ParseTimeRange(cmd.String("time-range"))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", shared.ErrInvalidTimeRange, err)
	}

	num := cmd.Int("num")
	if num < 0 {
		return "", 0, fmt.Errorf("%w: --num must be positive", shared.ErrInvalidArgument)
	}
	if num == 0 {
		num = r.config.Stats.DefaultNum
	}
	return tr, num, nil
}

func (r *Runner) saveReport(path string, data []byte, rows int) error {
	if err := formatter.WriteFile(path, data); err != nil {
		return err
	}
	r.logger.Info("report saved", "path", path, "rows", rows)
	return r.writePlain("%s Report saved to %s\n", r.palette.OK("✓"), path)
}

// watch logs progress updates until the returned func is called.
func (r *Runner) watch() (chan<- tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			r.logger.Debug(u.Message, "phase", u.Phase, "step", u.Step, "total", u.Total)
		}
	}()
	return progress, func() {
		close(progress)
		<-done
	}
}

// login runs the browser login and returns a token valid for at least [session.RefreshMargin].
func (r *Runner) login(ctx context.Context) (models.TokenRecord, error) {
	if r.spotify == nil || r.engine == nil {
		return models.TokenRecord{}, fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml or the environment", shared.ErrMissingCredentials)
	}

	token, err := r.doOAuth(ctx)
	if err != nil {
		return models.TokenRecord{}, err
	}

	policy := session.NewPolicy(session.NewMemoryStore(), r.spotify, &session.PolicyOpts{Logger: r.logger})
	if err := policy.Store(ctx, cliSession, token); err != nil {
		return models.TokenRecord{}, err
	}
	return policy.Token(ctx, cliSession)
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server on the redirect URI.
func (r *Runner) doOAuth(ctx context.Context) (models.TokenRecord, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return models.TokenRecord{}, fmt.Errorf("failed to generate state token: %w", err)
	}

	redirect, err := url.Parse(r.config.Credentials.Spotify.RedirectURI)
	if err != nil {
		return models.TokenRecord{}, fmt.Errorf("%w: bad redirect_uri: %v", shared.ErrInvalidConfig, err)
	}
	addr := redirect.Host
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	oauthHandler := server.NewOAuthHandler(r.spotify, state, redirect.Path)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	srvCtx, cancel := context.WithCancel(ctx)
	serverErrors := make(chan error, 1)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		if err := server.ListenAndServe(srvCtx, server.NewHTTPServer(addr, router), r.logger); err != nil {
			serverErrors <- err
		}
	}()
	defer func() {
		cancel()
		<-stopped
	}()

	authURL := r.spotify.AuthURL(state)
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := r.openBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("%s", r.palette.Warn("⚠ Could not open browser automatically."))
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%v timeout)...\n", AuthTimeout)

	timeout := time.NewTimer(AuthTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return models.TokenRecord{}, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return models.TokenRecord{}, fmt.Errorf("%w: authorization timed out after %v", shared.ErrTimeout, AuthTimeout)
	case <-ctx.Done():
		return models.TokenRecord{}, ctx.Err()
	}

	if err := result.Error(); err != nil {
		return models.TokenRecord{}, fmt.Errorf("authorization failed: %w", err)
	}
	if result.Token.IsZero() {
		return models.TokenRecord{}, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	r.writePlain("%s Authorization successful\n", r.palette.OK("✓"))
	return result.Token, nil
}
