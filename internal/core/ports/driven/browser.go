package driven

import "context"

// Navigator sends the user agent to an authorization URL.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// PopupWindow is a handle to an open popup authorization window.
type PopupWindow interface {
	// Closed reports whether the window has been closed.
	Closed() bool

	// Close force-closes the window. Closing twice is a no-op.
	Close() error
}

// PopupOpener opens authorization popups.
type PopupOpener interface {
	Open(ctx context.Context, url string, width, height int) (PopupWindow, error)
}
