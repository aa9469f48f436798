package updatecheck

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedDocument reports a version document without a usable version field.
var ErrMalformedDocument = errors.New("malformed version document")

// Descriptor identifies a deployed build. Descriptors are compared for equality only.
type Descriptor string

// VersionDocument is the JSON resource published next to every storefront build.
type VersionDocument struct {
	// Version is a number (usually the build timestamp) or a string.
	Version json.RawMessage `json:"version"`

	// Build is an optional tag appended to Version.
	Build json.RawMessage `json:"build,omitempty"`
}

// ParseVersionDocument decodes body and forms its descriptor.
func ParseVersionDocument(body []byte) (Descriptor, error) {
	var doc VersionDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return doc.Descriptor()
}

// Descriptor returns "<version>-<build>", or "<version>" when the build tag is absent or empty.
// A missing, empty or non-scalar version is malformed.
func (d VersionDocument) Descriptor() (Descriptor, error) {
	version, ok := scalar(d.Version)
	if !ok || version == "" {
		return "", fmt.Errorf("%w: version field missing or not a scalar", ErrMalformedDocument)
	}

	build, ok := scalar(d.Build)
	if !ok && !isNull(d.Build) {
		return "", fmt.Errorf("%w: build field is not a scalar", ErrMalformedDocument)
	}
	if build == "" {
		return Descriptor(version), nil
	}
	return Descriptor(version + "-" + build), nil
}

// scalar renders a JSON string or number as text. Numbers keep their literal spelling so
// large timestamps never go through float64.
func scalar(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return strings.TrimSpace(s), true
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", false
		}
		return n.String(), true
	default:
		return "", false
	}
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
