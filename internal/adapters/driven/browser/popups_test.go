package browser

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubOpen records opened URLs instead of launching a browser.
func stubOpen(t *testing.T, err error) *[]string {
	t.Helper()
	var (
		mu     sync.Mutex
		opened []string
	)
	orig := openFunc
	openFunc = func(url string) error {
		mu.Lock()
		defer mu.Unlock()
		opened = append(opened, url)
		return err
	}
	t.Cleanup(func() { openFunc = orig })
	return &opened
}

func TestNavigator_Navigate(t *testing.T) {
	opened := stubOpen(t, nil)

	err := NewNavigator().Navigate(context.Background(), "https://github.com/login/oauth/authorize?state=x")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://github.com/login/oauth/authorize?state=x"}, *opened)
}

func TestNavigator_NavigateFailure(t *testing.T) {
	stubOpen(t, errors.New("no display"))

	err := NewNavigator().Navigate(context.Background(), "https://example.com")
	assert.ErrorContains(t, err, "no display")
}

func TestPopups_OpenServesLandingPage(t *testing.T) {
	opened := stubOpen(t, nil)
	popups := NewPopups("http://127.0.0.1:8765/")
	srv := httptest.NewServer(popups.Handler())
	defer srv.Close()

	win, err := popups.Open(context.Background(), "https://api.notion.com/v1/oauth/authorize?owner=user&state=s", 0, 0)
	require.NoError(t, err)
	w := win.(*Window)

	require.Len(t, *opened, 1)
	assert.Equal(t, "http://127.0.0.1:8765/oauth/popup/"+w.ID(), (*opened)[0])
	assert.Equal(t, 1, popups.Pending())

	resp, err := http.Get(srv.URL + PathPrefix + w.ID())
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	page := string(body)
	assert.Contains(t, page, "window.open(authURL")
	assert.Contains(t, page, "api.notion.com")
	assert.Contains(t, page, "width=600,height=700")
	assert.False(t, strings.Contains(page, "owner=user&state"), "URL must be escaped for script context")
}

func TestPopups_ClosedReport(t *testing.T) {
	stubOpen(t, nil)
	popups := NewPopups("http://localhost")
	srv := httptest.NewServer(popups.Handler())
	defer srv.Close()

	win, err := popups.Open(context.Background(), "https://example.com/auth", 500, 600)
	require.NoError(t, err)
	w := win.(*Window)
	assert.False(t, win.Closed())

	resp, err := http.Post(srv.URL+PathPrefix+w.ID()+"/closed", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	assert.True(t, win.Closed())
	assert.Equal(t, 1, popups.Pending(), "a reported close still needs Close")

	require.NoError(t, win.Close())
	require.NoError(t, win.Close())
	assert.Zero(t, popups.Pending())
}

func TestPopups_CloseRequestsLandingPageToClose(t *testing.T) {
	stubOpen(t, nil)
	popups := NewPopups("http://localhost")
	srv := httptest.NewServer(popups.Handler())
	defer srv.Close()

	win, err := popups.Open(context.Background(), "https://example.com/auth", 500, 600)
	require.NoError(t, err)
	w := win.(*Window)

	state := func() string {
		resp, err := http.Get(srv.URL + PathPrefix + w.ID() + "/state")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return strings.TrimSpace(string(body))
	}

	assert.Equal(t, `{"close":false}`, state())

	require.NoError(t, win.Close())
	require.NoError(t, win.Close())
	assert.True(t, win.Closed())
	assert.Equal(t, 0, popups.Pending())
	assert.Equal(t, `{"close":true}`, state())

	resp, err := http.Get(srv.URL + PathPrefix + w.ID())
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPopups_OpenFailureForgetsWindow(t *testing.T) {
	stubOpen(t, errors.New("no browser"))
	popups := NewPopups("http://localhost")

	_, err := popups.Open(context.Background(), "https://example.com/auth", 0, 0)
	assert.ErrorContains(t, err, "no browser")
	assert.Equal(t, 0, popups.Pending())
}
