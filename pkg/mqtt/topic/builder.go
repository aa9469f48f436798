package topic

import (
	"fmt"
)

// Standard topic segments shared by the update agent, the storefront shell and the release server.
// Changing these values breaks compatibility with deployed shells.
const (
	// SuffixNotice carries update notices (Agent -> Shell).
	// Structure: {root}/notice/{sessionID}
	SuffixNotice = "notice"

	// SuffixAck carries the user's acknowledgement of a notice (Shell -> Agent).
	// Structure: {root}/ack/{sessionID}
	SuffixAck = "ack"

	// SuffixReload carries the forced reload request (Agent -> Shell).
	// Structure: {root}/reload/{sessionID}
	SuffixReload = "reload"

	// SuffixStatus carries the agent's online state, also used as its last will.
	// Structure: {root}/status/{sessionID}
	SuffixStatus = "status"

	// SuffixRelease announces freshly published builds (Release server -> Agents).
	// Structure: {root}/release
	SuffixRelease = "release"
)

// TopicBuilder constructs MQTT topic strings under a common root.
type TopicBuilder struct {
	// root is the base namespace for all topics (e.g., "vitrine/v1").
	root string
}

// NewTopicBuilder creates a new instance of TopicBuilder with the specified root namespace.
func NewTopicBuilder(root string) *TopicBuilder {
	return &TopicBuilder{root: root}
}

// Notice returns the topic a session's notices are published on.
func (b *TopicBuilder) Notice(sessionID string) string {
	return b.build(SuffixNotice, sessionID)
}

// Ack returns the topic a session's shell acknowledges notices on.
func (b *TopicBuilder) Ack(sessionID string) string {
	return b.build(SuffixAck, sessionID)
}

// AckWildcard subscribes to the acknowledgements of every session.
func (b *TopicBuilder) AckWildcard() string {
	return b.build(SuffixAck, Wildcard)
}

// Reload returns the topic a session's shell listens on for reload requests.
func (b *TopicBuilder) Reload(sessionID string) string {
	return b.build(SuffixReload, sessionID)
}

// Status returns the topic carrying a session agent's online state.
func (b *TopicBuilder) Status(sessionID string) string {
	return b.build(SuffixStatus, sessionID)
}

// Release returns the release announcement topic.
func (b *TopicBuilder) Release() string {
	return fmt.Sprintf("%s/%s", b.root, SuffixRelease)
}

// build is a private helper to construct the final topic string.
// Pattern: {root}/{suffix}/{identifier}
func (b *TopicBuilder) build(suffix, id string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, suffix, id)
}
