package dingtalk

import "net/url"

// openAPIHost is the platform's OpenAPI host for robot sends.
const openAPIHost = "https://oapi.dingtalk.com"

// EndpointKind tags which credential backs a delivery endpoint.
type EndpointKind string

const (
	// EndpointPermanent is built from an operator-supplied access token.
	EndpointPermanent EndpointKind = "permanent"
	// EndpointTemporary is the platform-issued per-session webhook URL.
	EndpointTemporary EndpointKind = "temporary"
)

// Endpoint is a resolved outbound delivery target.
type Endpoint struct {
	Kind EndpointKind
	URL  string
}

// PermanentSendURL builds the robot send URL for a permanent access token.
func PermanentSendURL(token string) string {
	return openAPIHost + "/robot/send?access_token=" + url.QueryEscape(token)
}
