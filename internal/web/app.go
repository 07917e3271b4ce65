package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rewrapped/internal/formatter"
	"github.com/desertthunder/rewrapped/internal/models"
	"github.com/desertthunder/rewrapped/internal/server"
	"github.com/desertthunder/rewrapped/internal/services"
	"github.com/desertthunder/rewrapped/internal/shared"
	"github.com/desertthunder/rewrapped/internal/stats"
	"github.com/desertthunder/rewrapped/internal/tasks"
	"github.com/samber/lo"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultNum is the number of rows shown when the request has no num parameter.
const DefaultNum = 10

// DefaultStateTTL is how long a login started with POST /login may take to come back to the callback.
const DefaultStateTTL = 10 * time.Minute

// truncateAt is the display length of song, album and artist names.
const truncateAt = 20

const defaultReportURL = "/user_data?time_range=short_term&search=tracks"

// TokenPolicy hands out valid tokens per session. [session.Policy] implements it.
type TokenPolicy interface {
	Token(ctx context.Context, sessionID string) (models.TokenRecord, error)
	Store(ctx context.Context, sessionID string, rec models.TokenRecord) error
	Clear(ctx context.Context, sessionID string) error
}

// Reporter builds the reports. [tasks.ReportEngine] implements it.
type Reporter interface {
	Tracks(ctx context.Context, progress chan<- tasks.ProgressUpdate, token models.TokenRecord, tr models.TimeRange, num int) (*tasks.TracksReport, error)
	Artists(ctx context.Context, progress chan<- tasks.ProgressUpdate, token models.TokenRecord, tr models.TimeRange, num int) (*tasks.ArtistsReport, error)
}

// AppOpts overrides the defaults of [NewApp].
type AppOpts struct {
	Logger     *log.Logger
	DefaultNum int
	StateTTL   time.Duration    // lifetime of a pending OAuth state (default: DefaultStateTTL)
	Now        func() time.Time // clock for state expiry (default: time.Now)
}

// App serves the web front end.
type App struct {
	oauth      services.OAuthService
	tokens     TokenPolicy
	reports    Reporter
	logger     *log.Logger
	defaultNum int
	tmpl       *template.Template

	stateTTL time.Duration
	now      func() time.Time

	mu     sync.Mutex
	states map[string]pendingState // keyed by session id
}

// pendingState is an OAuth state issued by /login and not yet returned by the callback.
type pendingState struct {
	value  string
	issued time.Time
}

// NewApp parses the embedded templates and returns an App.
func NewApp(oauth services.OAuthService, tokens TokenPolicy, reports Reporter, opts *AppOpts) (*App, error) {
	if oauth == nil || tokens == nil || reports == nil {
		return nil, fmt.Errorf("%w: oauth, token policy and reporter are required", shared.ErrMissingArgument)
	}
	if opts == nil {
		opts = &AppOpts{}
	}

	tmpl, err := template.New("web").Funcs(templateFuncs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	app := &App{
		oauth:      oauth,
		tokens:     tokens,
		reports:    reports,
		logger:     opts.Logger,
		defaultNum: opts.DefaultNum,
		tmpl:       tmpl,
		stateTTL:   opts.StateTTL,
		now:        opts.Now,
		states:     make(map[string]pendingState),
	}
	if app.logger == nil {
		app.logger = shared.NewLogger(nil)
	}
	if app.defaultNum <= 0 {
		app.defaultNum = DefaultNum
	}
	if app.stateTTL <= 0 {
		app.stateTTL = DefaultStateTTL
	}
	if app.now == nil {
		app.now = time.Now
	}
	return app, nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": func(s string) string { return shared.Truncate(s, truncateAt) },
		"join":     func(s []string) string { return strings.Join(s, ", ") },
		"fixed":    func(f float64) string { return strconv.FormatFloat(f, 'f', 3, 64) },
		"inc":      func(i int) int { return i + 1 },
	}
}

// Register adds the app routes to r.
func (a *App) Register(r server.Router) {
	home := http.HandlerFunc(a.handleHome)
	r.Handle(http.MethodGet, "/{$}", home)
	r.Handle(http.MethodPost, "/{$}", home)
	r.Handle(http.MethodPost, "/login", http.HandlerFunc(a.handleLogin))
	r.Handle(http.MethodGet, "/user_data", http.HandlerFunc(a.handleUserData))
	r.Handle(http.MethodPost, "/logout", http.HandlerFunc(a.handleLogout))
	r.Handle(http.MethodGet, "/healthz", http.HandlerFunc(a.handleHealth))
}

type rangeLink struct {
	Value models.TimeRange
	Label string
}

var rangeLinks = []rangeLink{
	{models.ShortTerm, models.ShortTerm.Label()},
	{models.MediumTerm, models.MediumTerm.Label()},
	{models.LongTerm, models.LongTerm.Label()},
}

type indexPage struct {
	Title  string
	Ranges []rangeLink
	Error  string
}

type tracksPage struct {
	Title       string
	Ranges      []rangeLink
	TimeRange   models.TimeRange
	Num         int
	Report      *tasks.TracksReport
	Charts      []ChartView
	ChartLabelY int
}

type artistsPage struct {
	Title     string
	Ranges    []rangeLink
	TimeRange models.TimeRange
	Num       int
	Report    *tasks.ArtistsReport
}

func (a *App) handleHome(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("code") != "" {
		a.completeLogin(w, r)
		return
	}
	if msg := q.Get("error"); msg != "" {
		a.logger.Warn("authorization denied", "reason", msg)
		a.render(w, http.StatusOK, "index.html", indexPage{Ranges: rangeLinks, Error: msg})
		return
	}
	a.render(w, http.StatusOK, "index.html", indexPage{Ranges: rangeLinks})
}

// completeLogin handles the authorization callback: it replaces any token of the session with a fresh one.
func (a *App) completeLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := server.SessionID(ctx)
	q := r.URL.Query()

	if !a.takeState(sid, q.Get("state")) {
		a.logger.Warn("oauth callback rejected", "reason", shared.ErrInvalidState)
		a.render(w, http.StatusBadRequest, "index.html", indexPage{Ranges: rangeLinks, Error: shared.ErrInvalidState.Error()})
		return
	}

	if err := a.tokens.Clear(ctx, sid); err != nil {
		a.logger.Error("failed to clear session", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	token, err := a.oauth.Exchange(ctx, q.Get("code"))
	if err != nil {
		a.logger.Error("code exchange failed", "error", err)
		a.render(w, http.StatusBadGateway, "index.html", indexPage{Ranges: rangeLinks, Error: shared.ErrAuthFailed.Error()})
		return
	}

	if err := a.tokens.Store(ctx, sid, token); err != nil {
		a.logger.Error("failed to store token", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	a.logger.Info("user logged in", "session", sid)
	http.Redirect(w, r, "/user_data", http.StatusFound)
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := shared.GenerateState()
	if err != nil {
		a.logger.Error("failed to generate state", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	a.putState(server.SessionID(r.Context()), state)

	http.Redirect(w, r, a.oauth.AuthURL(state), http.StatusSeeOther)
}

// putState records the pending state of a session and drops states abandoned for longer than the TTL.
func (a *App) putState(sid, state string) {
	now := a.now()

	a.mu.Lock()
	defer a.mu.Unlock()

	for id, p := range a.states {
		if now.Sub(p.issued) > a.stateTTL {
			delete(a.states, id)
		}
	}
	a.states[sid] = pendingState{value: state, issued: now}
}

// takeState consumes the pending state of a session and reports whether it matches got and has not expired.
func (a *App) takeState(sid, got string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, ok := a.states[sid]
	if !ok || got == "" {
		return false
	}
	delete(a.states, sid)
	return p.value == got && a.now().Sub(p.issued) <= a.stateTTL
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := a.tokens.Clear(r.Context(), server.SessionID(r.Context())); err != nil {
		a.logger.Error("failed to clear session", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "ok")
}

func (a *App) handleUserData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := server.SessionID(ctx)

	token, err := a.tokens.Token(ctx, sid)
	switch {
	case errors.Is(err, shared.ErrTokenMissing):
		a.logger.Info("user not logged in", "reason", err, "session", sid)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	case errors.Is(err, shared.ErrRefreshFailed):
		a.logger.Warn("session expired, login required", "reason", err, "session", sid)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	case err != nil:
		a.fail(w, err)
		return
	}

	q := r.URL.Query()
	if q.Get("time_range") == "" {
		http.Redirect(w, r, defaultReportURL, http.StatusFound)
		return
	}

	tr, err := models.ParseTimeRange(q.Get("time_range"))
	if err != nil {
		a.fail(w, fmt.Errorf("%w: %v", shared.ErrInvalidTimeRange, err))
		return
	}

	num, err := a.parseNum(q)
	if err != nil {
		a.fail(w, err)
		return
	}

	csv := q.Get("format") == "csv"

	switch models.SearchKind(q.Get("search")) {
	case models.SearchTracks:
		report, err := a.reports.Tracks(ctx, nil, token, tr, num)
		if err != nil {
			a.fail(w, err)
			return
		}
		if csv {
			a.sendCSV(w, fmt.Sprintf("tracks_%s.csv", tr), func() ([]byte, error) { return formatter.TracksToCSV(report.Rows) })
			return
		}
		a.render(w, http.StatusOK, "tracks.html", tracksPage{
			Title:       "Top tracks",
			Ranges:      rangeLinks,
			TimeRange:   tr,
			Num:         num,
			Report:      report,
			Charts:      lo.Map(report.Charts, func(c stats.Chart, _ int) ChartView { return NewChartView(c) }),
			ChartLabelY: chartHeight + labelHeight - 4,
		})
	case models.SearchArtists:
		report, err := a.reports.Artists(ctx, nil, token, tr, num)
		if err != nil {
			a.fail(w, err)
			return
		}
		if csv {
			a.sendCSV(w, fmt.Sprintf("genres_%s.csv", tr), func() ([]byte, error) { return formatter.GenresToCSV(report.Genres) })
			return
		}
		a.render(w, http.StatusOK, "artists.html", artistsPage{
			Title:     "Top artists",
			Ranges:    rangeLinks,
			TimeRange: tr,
			Num:       num,
			Report:    report,
		})
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<a href="/">Home</a>`)
	}
}

func (a *App) parseNum(q url.Values) (int, error) {
	raw := q.Get("num")
	if raw == "" {
		return a.defaultNum, nil
	}
	num, err := strconv.Atoi(raw)
	if err != nil || num < 1 {
		return 0, fmt.Errorf("%w: num must be a positive integer, got %q", shared.ErrInvalidArgument, raw)
	}
	return num, nil
}

// fail maps a pipeline error to a status code. Nothing of the report has been written at this point.
func (a *App) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("report failed", "error", err, "status", status)
	} else {
		a.logger.Debug("bad request", "error", err)
	}
	http.Error(w, http.StatusText(status)+": "+err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidTimeRange),
		errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrMalformedRecord),
		errors.Is(err, shared.ErrUnmatchedTrack),
		errors.Is(err, shared.ErrAPIRequest),
		errors.Is(err, shared.ErrTooManyIDs):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (a *App) sendCSV(w http.ResponseWriter, name string, build func() ([]byte, error)) {
	data, err := build()
	if err != nil {
		a.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(data)
}

// render buffers the page and only then writes the status and body.
func (a *App) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := a.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		a.logger.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
