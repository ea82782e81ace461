package browser

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/custodia-labs/sercha-connect/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-connect/internal/logger"
)

// openFunc launches the system browser. Replaced in tests.
var openFunc = OpenBrowser

// OpenBrowser opens the default browser to the given URL.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// Ensure Navigator implements the interface.
var _ driven.Navigator = (*Navigator)(nil)

// Navigator opens redirect-flow authorize URLs in the system browser.
type Navigator struct{}

// NewNavigator creates a Navigator.
func NewNavigator() *Navigator {
	return &Navigator{}
}

// Navigate opens url.
func (n *Navigator) Navigate(_ context.Context, url string) error {
	logger.Debug("browser: opening %s", url)
	if err := openFunc(url); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	return nil
}
