package webflow

import (
	"net/url"
	"os/exec"
	"runtime"
)

// BrowserOpener opens http and https URLs in the system browser. It
// satisfies the URL-opening contract of the deeplink package for hosts that
// run web flows on the desktop.
type BrowserOpener struct{}

// CanOpen reports whether the URL uses a scheme the browser handles.
func (BrowserOpener) CanOpen(u *url.URL) bool {
	return u != nil && (u.Scheme == "http" || u.Scheme == "https")
}

// Open launches the platform's URL handler. It reports whether the launch
// command started, not whether the page loaded.
func (b BrowserOpener) Open(u *url.URL) bool {
	if !b.CanOpen(u) {
		return false
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", u.String())
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", u.String())
	default:
		cmd = exec.Command("xdg-open", u.String())
	}
	return cmd.Start() == nil
}
