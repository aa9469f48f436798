package reloader

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vitrine-io/vitrine/internal/updatecheck"
	apiv1 "github.com/vitrine-io/vitrine/pkg/api/v1"
	pkgmqtt "github.com/vitrine-io/vitrine/pkg/mqtt"
	"github.com/vitrine-io/vitrine/pkg/mqtt/topic"
)

// MQTTReloader asks the session's shell to reload through {root}/reload/{session}.
type MQTTReloader struct {
	client    pkgmqtt.Client
	topics    *topic.TopicBuilder
	sessionID string
}

var _ updatecheck.Reloader = (*MQTTReloader)(nil)

func NewMQTTReloader(client pkgmqtt.Client, topics *topic.TopicBuilder, sessionID string) *MQTTReloader {
	return &MQTTReloader{
		client:    client,
		topics:    topics,
		sessionID: sessionID,
	}
}

func (r *MQTTReloader) Reload(ctx context.Context, req updatecheck.ReloadRequest) error {
	payload, err := json.Marshal(apiv1.ReloadMessage{
		BypassCache: req.BypassCache,
		Descriptor:  string(req.Descriptor),
	})
	if err != nil {
		return fmt.Errorf("marshal reload request: %w", err)
	}

	if err := r.client.Publish(ctx, r.topics.Reload(r.sessionID), 1, false, payload); err != nil {
		return fmt.Errorf("publish reload request: %w", err)
	}
	return nil
}
