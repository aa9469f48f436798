package reloader

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/vitrine-io/vitrine/internal/updatecheck"
	"github.com/vitrine-io/vitrine/pkg/log"
)

// Environment passed to the reload command.
const (
	EnvDescriptor  = "VITRINE_DESCRIPTOR"
	EnvBypassCache = "VITRINE_BYPASS_CACHE"
)

// CommandReloader runs a shell command, typically restarting the kiosk browser with an empty cache.
type CommandReloader struct {
	command string
	timeout time.Duration
	logger  log.Logger
}

var _ updatecheck.Reloader = (*CommandReloader)(nil)

func NewCommandReloader(command string, timeout time.Duration, logger log.Logger) *CommandReloader {
	return &CommandReloader{
		command: command,
		timeout: timeout,
		logger:  logger,
	}
}

func (r *CommandReloader) Reload(ctx context.Context, req updatecheck.ReloadRequest) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", r.command)
	cmd.Env = append(os.Environ(),
		EnvDescriptor+"="+string(req.Descriptor),
		fmt.Sprintf("%s=%t", EnvBypassCache, req.BypassCache),
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	// Children that keep the output pipe open must not outlive the timeout.
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("reload command failed: %w: %s", err, strings.TrimSpace(out.String()))
	}

	r.logger.Info("Reload command finished", "descriptor", req.Descriptor, "output", strings.TrimSpace(out.String()))
	return nil
}
