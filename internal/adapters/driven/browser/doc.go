// Package browser opens authorization pages in the user's browser.
//
// Navigator sends the browser straight to a redirect-flow authorize URL.
// Popups implements the popup flow on top of a small landing page served
// by the local HTTP server: the landing page opens the provider login in
// a real popup window, watches it, and reports back when it closes. The
// orchestrator's poll loop then sees the closed window exactly as a web
// panel would.
package browser
