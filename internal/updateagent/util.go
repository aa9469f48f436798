package updateagent

import (
	"os"
	"strings"

	"github.com/vitrine-io/vitrine/pkg/log"
)

// Session ID sources, in order of precedence.
const (
	EnvSessionID  = "VITRINE_SESSION_ID"
	SessionIDFile = "/etc/vitrine/session-id"
)

// DiscoverSessionID identifies the storefront session this agent serves.
// The kiosk provisioning normally injects the environment variable or writes the file;
// the hostname is the last resort so that a bare install still gets a stable ID.
func DiscoverSessionID() string {
	return discoverSessionID(os.Getenv, SessionIDFile, os.Hostname)
}

func discoverSessionID(getenv func(string) string, file string, hostname func() (string, error)) string {
	if id := strings.TrimSpace(getenv(EnvSessionID)); id != "" {
		log.Info("SessionID detected from env", "id", id)
		return id
	}

	if content, err := os.ReadFile(file); err == nil {
		if id := strings.TrimSpace(string(content)); id != "" {
			log.Info("SessionID detected from file", "id", id, "file", file)
			return id
		}
	}

	if h, err := hostname(); err == nil && h != "" {
		log.Info("SessionID falls back to hostname", "id", h)
		return h
	}

	return ""
}
