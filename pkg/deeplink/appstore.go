package deeplink

import (
	"fmt"
	"net/url"
)

const appStoreHost = "apps.apple.com"

// AppStoreTarget builds a deeplink to the app-store listing for the given
// app, used as the install fallback when a privileged-scope login cannot be
// completed on-device.
func AppStoreTarget(app App, clientID, userAgent string) (*Target, error) {
	if app.AppStoreID == "" {
		return nil, fmt.Errorf("app %q has no app-store listing configured", app.Family)
	}
	query := url.Values{}
	query.Set("client_id", clientID)
	if userAgent != "" {
		query.Set("user-agent", userAgent)
	}
	return NewTarget("https", appStoreHost, "/app/"+app.AppStoreID, query)
}
