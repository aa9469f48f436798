package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vitrine-io/vitrine/internal/updatecheck"
	apiv1 "github.com/vitrine-io/vitrine/pkg/api/v1"
	pkgmqtt "github.com/vitrine-io/vitrine/pkg/mqtt"
	"github.com/vitrine-io/vitrine/pkg/mqtt/topic"
)

// MQTTNoticer publishes notices to the session's shell on {root}/notice/{session}.
type MQTTNoticer struct {
	client    pkgmqtt.Client
	topics    *topic.TopicBuilder
	sessionID string
}

var _ updatecheck.Noticer = (*MQTTNoticer)(nil)

func NewMQTTNoticer(client pkgmqtt.Client, topics *topic.TopicBuilder, sessionID string) *MQTTNoticer {
	return &MQTTNoticer{
		client:    client,
		topics:    topics,
		sessionID: sessionID,
	}
}

func (n *MQTTNoticer) ShowNotice(ctx context.Context, notice updatecheck.Notice) error {
	payload, err := json.Marshal(apiv1.NoticeMessage{
		Title:         notice.Title,
		Body:          notice.Body,
		ActionLabel:   notice.PrimaryActionLabel,
		Descriptor:    string(notice.Descriptor),
		DisplayMillis: notice.DisplayDuration.Milliseconds(),
		AckTopic:      n.topics.Ack(n.sessionID),
	})
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}

	// Not retained: a shell connecting later gets the next reminder instead of a stale notice.
	if err := n.client.Publish(ctx, n.topics.Notice(n.sessionID), 1, false, payload); err != nil {
		return fmt.Errorf("publish notice: %w", err)
	}
	return nil
}
