package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"k8s.io/utils/clock"

	"github.com/vitrine-io/vitrine/internal/pkg/metrics"
	"github.com/vitrine-io/vitrine/internal/updatecheck"
	"github.com/vitrine-io/vitrine/pkg/log"
)

// Publisher stamps new builds into the version document.
type Publisher struct {
	store     Store
	announcer Announcer
	clock     clock.PassiveClock
}

// NewPublisher builds a Publisher. announcer may be nil.
func NewPublisher(store Store, announcer Announcer, c clock.PassiveClock) *Publisher {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Publisher{store: store, announcer: announcer, clock: c}
}

// Publish writes {"version": <unix millis>, "build": build} and announces it.
// The version is the build timestamp, so two publishes of the same tag still differ.
func (p *Publisher) Publish(ctx context.Context, build string) (Release, error) {
	build = strings.TrimSpace(build)
	version := strconv.FormatInt(p.clock.Now().UnixMilli(), 10)

	doc := map[string]any{"version": json.Number(version)}
	if build != "" {
		doc["build"] = build
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return Release{}, fmt.Errorf("marshal version document: %w", err)
	}

	// Parse back what agents will parse so a bad document never gets published.
	desc, err := updatecheck.ParseVersionDocument(raw)
	if err != nil {
		return Release{}, err
	}

	if err := p.store.Save(ctx, raw); err != nil {
		return Release{}, fmt.Errorf("save version document: %w", err)
	}
	metrics.ReleasePublishedTotal.Inc()

	release := Release{Version: version, Build: build, Descriptor: string(desc)}
	log.Info("Release published", "descriptor", release.Descriptor)

	if p.announcer != nil {
		if err := p.announcer.Announce(ctx, release); err != nil {
			// Agents still pick the release up on their next poll.
			log.Error(err, "Failed to announce release", "descriptor", release.Descriptor)
		}
	}
	return release, nil
}

// Current returns the descriptor of the published document.
func (p *Publisher) Current(ctx context.Context) (string, error) {
	raw, err := p.store.Load(ctx)
	if err != nil {
		return "", err
	}
	desc, err := updatecheck.ParseVersionDocument(raw)
	if err != nil {
		return "", err
	}
	return string(desc), nil
}
