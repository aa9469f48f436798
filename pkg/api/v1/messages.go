// Package v1 holds the JSON messages exchanged over MQTT and HTTP between the update agent,
// storefront shells and the release server.
package v1

// NoticeMessage is published on {root}/notice/{session} whenever the agent shows a notice.
type NoticeMessage struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	ActionLabel string `json:"actionLabel"`
	Descriptor  string `json:"descriptor"`

	// DisplayMillis is how long the shell keeps the notice on screen.
	DisplayMillis int64 `json:"displayMillis"`

	// AckTopic is where the shell publishes when the user presses the action.
	AckTopic string `json:"ackTopic"`
}

// ReloadMessage is published on {root}/reload/{session} to make a shell reload the storefront.
type ReloadMessage struct {
	BypassCache bool   `json:"bypassCache"`
	Descriptor  string `json:"descriptor,omitempty"`
}

// AckMessage is the optional payload a shell publishes on {root}/ack/{session}.
// An empty payload acknowledges too.
type AckMessage struct {
	Descriptor string `json:"descriptor,omitempty"`
}

// ReleaseAnnouncement is published on {root}/release after every release.
type ReleaseAnnouncement struct {
	Version    string `json:"version"`
	Build      string `json:"build,omitempty"`
	Descriptor string `json:"descriptor"`
}

// PublishRequest is the body of POST /v1/releases.
type PublishRequest struct {
	Build string `json:"build"`
}

// PublishResponse is returned by POST /v1/releases.
type PublishResponse struct {
	Version    string `json:"version"`
	Build      string `json:"build,omitempty"`
	Descriptor string `json:"descriptor"`
}

// OnlineStatus is retained on {root}/status/{session}. The agent's last will carries Online=false.
type OnlineStatus struct {
	SessionID string `json:"sessionID"`
	Online    bool   `json:"online"`
	Reason    string `json:"reason,omitempty"`
}
