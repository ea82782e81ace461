package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-connect/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-connect/internal/logger"
)

// PathPrefix is where Popups.Handler expects to be mounted.
const PathPrefix = "/oauth/popup/"

// Ensure Popups implements the interface.
var _ driven.PopupOpener = (*Popups)(nil)

// Popups opens authorization popups through a landing page on the local
// server and tracks the resulting windows.
type Popups struct {
	baseURL string

	mu      sync.Mutex
	windows map[string]*Window
}

// NewPopups creates a popup opener whose landing pages live under baseURL,
// the externally visible address of the local server.
func NewPopups(baseURL string) *Popups {
	return &Popups{
		baseURL: strings.TrimRight(baseURL, "/"),
		windows: make(map[string]*Window),
	}
}

// Open registers a window for authURL and opens its landing page.
func (p *Popups) Open(_ context.Context, authURL string, width, height int) (driven.PopupWindow, error) {
	w := &Window{
		id:      uuid.NewString(),
		authURL: authURL,
		width:   width,
		height:  height,
		owner:   p,
	}
	if w.width <= 0 {
		w.width = 600
	}
	if w.height <= 0 {
		w.height = 700
	}

	p.mu.Lock()
	p.windows[w.id] = w
	p.mu.Unlock()

	landing := p.baseURL + PathPrefix + w.id
	logger.Debug("browser: opening popup landing page %s", landing)
	if err := openFunc(landing); err != nil {
		p.forget(w.id)
		return nil, fmt.Errorf("open browser: %w", err)
	}
	return w, nil
}

// Pending returns the number of windows that have not been closed.
func (p *Popups) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.windows)
}

func (p *Popups) lookup(id string) *Window {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.windows[id]
}

func (p *Popups) forget(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.windows, id)
}

// Handler serves the landing pages. Mount it at PathPrefix.
//
//	GET  {id}         landing page that opens and watches the popup
//	GET  {id}/state   {"close": bool}, polled by the landing page
//	POST {id}/closed  reports that the popup window closed
func (p *Popups) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+PathPrefix+"{id}", p.handleLanding)
	mux.HandleFunc("GET "+PathPrefix+"{id}/state", p.handleState)
	mux.HandleFunc("POST "+PathPrefix+"{id}/closed", p.handleClosed)
	return mux
}

func (p *Popups) handleLanding(w http.ResponseWriter, r *http.Request) {
	win := p.lookup(r.PathValue("id"))
	if win == nil {
		http.Error(w, "authorization window expired", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	data := landingData{
		AuthURL:  win.authURL,
		Width:    win.width,
		Height:   win.height,
		StateURL: PathPrefix + win.id + "/state",
		ClosedTo: PathPrefix + win.id + "/closed",
	}
	if err := landingTemplate.Execute(w, data); err != nil {
		logger.Warn("browser: render landing page: %v", err)
	}
}

func (p *Popups) handleState(w http.ResponseWriter, r *http.Request) {
	win := p.lookup(r.PathValue("id"))
	w.Header().Set("Content-Type", "application/json")
	// An unknown window has been closed by the orchestrator.
	closeRequested := win == nil || win.closeRequested.Load()
	_ = json.NewEncoder(w).Encode(map[string]bool{"close": closeRequested})
}

func (p *Popups) handleClosed(w http.ResponseWriter, r *http.Request) {
	win := p.lookup(r.PathValue("id"))
	if win == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	win.closed.Store(true)
	logger.Debug("browser: popup %s reported closed", win.id)
	w.WriteHeader(http.StatusNoContent)
}

// Window is an authorization popup opened through a landing page.
type Window struct {
	id      string
	authURL string
	width   int
	height  int
	owner   *Popups

	closed         atomic.Bool
	closeRequested atomic.Bool
}

// ID returns the landing page identifier.
func (w *Window) ID() string {
	return w.id
}

// Closed reports whether the landing page saw the popup close.
func (w *Window) Closed() bool {
	return w.closed.Load()
}

// Close asks the landing page to close the popup and stops tracking the
// window. Closing twice is a no-op.
func (w *Window) Close() error {
	w.closeRequested.Store(true)
	w.closed.Store(true)
	w.owner.forget(w.id)
	return nil
}

type landingData struct {
	AuthURL  string
	Width    int
	Height   int
	StateURL string
	ClosedTo string
}

//nolint:lll // inline page
var landingTemplate = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Sercha Connect - Authorize</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; background: #FAFAFA; }
        .container { text-align: center; background: white; padding: 48px 64px; border-radius: 16px; border: 1px solid #C7C8CC; box-shadow: 0 4px 24px rgba(0,0,0,0.08); }
        h1 { color: #333F50; margin: 0 0 8px 0; font-size: 24px; font-weight: 600; }
        p { color: #7B8088; margin: 0 0 24px 0; font-size: 16px; }
        button { background: #6675FF; color: white; border: 0; border-radius: 8px; padding: 12px 24px; font-size: 16px; cursor: pointer; }
    </style>
</head>
<body>
    <div class="container">
        <h1 id="title">Authorize access</h1>
        <p id="message">Sign in with the provider in the window that opens.</p>
        <button id="open">Open sign-in window</button>
    </div>
    <script>
        var authURL = {{.AuthURL}};
        var stateURL = {{.StateURL}};
        var closedURL = {{.ClosedTo}};
        var features = "width={{.Width}},height={{.Height}}";
        var child = null;
        var done = false;

        function finish(title, message) {
            done = true;
            document.getElementById("title").textContent = title;
            document.getElementById("message").textContent = message;
            document.getElementById("open").style.display = "none";
        }

        function watch() {
            if (done) { return; }
            if (child && child.closed) {
                fetch(closedURL, { method: "POST" });
                finish("Authorization window closed", "You can close this tab and return to the application.");
                return;
            }
            fetch(stateURL).then(function (r) { return r.json(); }).then(function (s) {
                if (s.close) {
                    if (child) { child.close(); }
                    finish("Authorization finished", "You can close this tab and return to the application.");
                }
            }).catch(function () {});
            setTimeout(watch, 500);
        }

        function openChild() {
            child = window.open(authURL, "sercha-connect-auth", features);
            if (!child) {
                document.getElementById("message").textContent = "The popup was blocked. Click the button to try again.";
                return;
            }
            document.getElementById("open").style.display = "none";
        }

        document.getElementById("open").addEventListener("click", openChild);
        openChild();
        watch();
    </script>
</body>
</html>`))
