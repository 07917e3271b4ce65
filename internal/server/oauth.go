package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sync"

	"github.com/desertthunder/rewrapped/internal/models"
	"github.com/desertthunder/rewrapped/internal/shared"
)

// CodeExchanger trades an authorization code for a token. services.SpotifyService implements it.
type CodeExchanger interface {
	Exchange(ctx context.Context, code string) (models.TokenRecord, error)
}

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token models.TokenRecord
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles the OAuth2 callback of the CLI's one-shot login flow.
// Implements the Handler interface for registration with a Router.
type OAuthHandler struct {
	exchanger   CodeExchanger
	state       string
	path        string
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates a new OAuth handler serving path (default "/") with the given state token.
// The state token should be cryptographically random for CSRF protection.
func NewOAuthHandler(exchanger CodeExchanger, state, path string) *OAuthHandler {
	if path == "" {
		path = "/"
	}
	return &OAuthHandler{
		exchanger:  exchanger,
		state:      state,
		path:       path,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP handles the OAuth callback request.
//
// The first request on the callback path decides the outcome; any later one is rejected.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != h.path {
		http.NotFound(w, r)
		return
	}

	h.mu.Lock()
	seen := h.callbackHit
	h.callbackHit = true
	h.mu.Unlock()
	if seen {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	token, status, err := h.complete(r)
	h.Send(OAuthResult{Token: token, err: err})
	if err != nil {
		writeCallbackPage(w, status, "Authorization failed", err.Error())
		return
	}
	writeCallbackPage(w, http.StatusOK, "Authorization successful", "You can close this window and return to the terminal.")
}

// complete validates the callback query and exchanges its code.
func (h *OAuthHandler) complete(r *http.Request) (models.TokenRecord, int, error) {
	q := r.URL.Query()
	if q.Get("state") != h.state {
		return models.TokenRecord{}, http.StatusBadRequest, shared.ErrInvalidState
	}

	code := q.Get("code")
	if code == "" {
		return models.TokenRecord{}, http.StatusBadRequest, fmt.Errorf("%w: %s", shared.ErrAuthFailed, q.Get("error"))
	}

	token, err := h.exchanger.Exchange(r.Context(), code)
	if err != nil {
		return models.TokenRecord{}, http.StatusBadGateway, fmt.Errorf("token exchange failed: %w", err)
	}
	return token, http.StatusOK, nil
}

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <title>Spotify Rewrapped | {{.Heading}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: grid; place-items: center; height: 100vh; margin: 0; background: #121212; color: #eee; }
        h1 { color: {{if .OK}}#1DB954{{else}}#ff6b6b{{end}}; }
    </style>
</head>
<body>
    <main>
        <h1>{{.Heading}}</h1>
        <p>{{.Message}}</p>
    </main>
</body>
</html>
`))

func writeCallbackPage(w http.ResponseWriter, status int, heading, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	callbackPage.Execute(w, struct {
		OK               bool
		Heading, Message string
	}{status == http.StatusOK, heading, message})
}

// Send sends the OAuth result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}
