package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vitrine-io/vitrine/internal/updateagent/core"
	apiv1 "github.com/vitrine-io/vitrine/pkg/api/v1"
	"github.com/vitrine-io/vitrine/pkg/log"
	pkgmqtt "github.com/vitrine-io/vitrine/pkg/mqtt"
	"github.com/vitrine-io/vitrine/pkg/mqtt/topic"
)

// Server implements the MQTT ingress layer of the agent: acknowledgements from the session's shell
// and release announcements.
type Server struct {
	client    pkgmqtt.Client
	topics    *topic.TopicBuilder
	sessionID string
	svc       core.UpdateService
	logger    log.Logger
}

// NewServer creates a new MQTT server around an already built client.
func NewServer(client pkgmqtt.Client, builder *topic.TopicBuilder, sessionID string, svc core.UpdateService) *Server {
	return &Server{
		client:    client,
		topics:    builder,
		sessionID: sessionID,
		svc:       svc,
		logger:    log.WithName("mqtt"),
	}
}

// Start connects to the broker, subscribes and blocks until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return err
	}

	// Ensure MQTT disconnects when Start exits.
	defer func() {
		s.publishOnline(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.client.Disconnect(shutdownCtx)
	}()

	s.logger.Info("Waiting for MQTT connection...")
	if err := s.client.AwaitConnection(ctx); err != nil {
		return err
	}

	if err := s.subscribe(ctx); err != nil {
		return err
	}
	s.publishOnline(true)

	<-ctx.Done()
	return nil
}

func (s *Server) subscribe(ctx context.Context) error {
	const qos = 1

	subscriptions := map[string]pkgmqtt.MessageHandler{
		s.topics.Ack(s.sessionID): s.handleAck,
		s.topics.Release():        s.handleRelease,
	}

	for fullTopic, handler := range subscriptions {
		if err := s.client.Subscribe(ctx, fullTopic, qos, handler); err != nil {
			return fmt.Errorf("failed to subscribe to topic: %s, err: %w", fullTopic, err)
		}
	}
	return nil
}

// handleAck acknowledges the pending update. The payload is optional and only logged.
func (s *Server) handleAck(ctx context.Context, _ string, payload []byte) {
	var msg apiv1.AckMessage
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.Warn("Ignoring undecodable ack payload", "error", err)
		}
	}

	s.logger.Info("Acknowledgement received over MQTT", "descriptor", msg.Descriptor)
	if err := s.svc.Acknowledge(ctx); err != nil {
		s.logger.Error(err, "Acknowledge failed")
	}
}

// handleRelease probes right away instead of waiting for the next poll tick.
func (s *Server) handleRelease(ctx context.Context, _ string, payload []byte) {
	var msg apiv1.ReleaseAnnouncement
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.logger.Warn("Ignoring undecodable release announcement", "error", err)
		return
	}

	res := s.svc.ProbeOnce(ctx)
	s.logger.Info("Probed after release announcement", "announced", msg.Descriptor, "outcome", res.Outcome.String())
}

// publishOnline sets the retained online flag; the broker flips it through the last will on crashes.
func (s *Server) publishOnline(online bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	payload, _ := json.Marshal(apiv1.OnlineStatus{SessionID: s.sessionID, Online: online})
	if err := s.client.Publish(ctx, s.topics.Status(s.sessionID), 1, true, payload); err != nil {
		s.logger.Error(err, "Failed to publish online status", "online", online)
	}
}
