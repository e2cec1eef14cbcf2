package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
)

// Provider opens browsing sessions against the automation capability.
type Provider interface {
	NewSession(ctx context.Context) (Session, error)
}

// Session is one live browsing session. It is owned by a single funnel run
// and must be closed exactly once.
type Session interface {
	// Act performs a best-effort UI action described in natural language.
	Act(ctx context.Context, instruction string) error
	// Extract returns an unstructured observation about current page state.
	Extract(ctx context.Context, prompt string) (Observation, error)
	// CurrentURL reports the URL the session is currently on.
	CurrentURL(ctx context.Context) (string, error)
	// ReplayURL returns the session replay link, if the provider exposes one.
	ReplayURL() string
	// Close releases the session. Best-effort; errors are advisory.
	Close(ctx context.Context) error
}

// Observation is an opaque value returned by Extract. The provider may send
// back a bare string, an object, or anything else; downstream logic never
// assumes shaped fields and always matches over the serialized text.
type Observation struct {
	raw json.RawMessage
}

// NewObservation wraps a raw JSON payload.
func NewObservation(raw json.RawMessage) Observation {
	return Observation{raw: raw}
}

// TextObservation wraps a plain string.
func TextObservation(s string) Observation {
	data, err := json.Marshal(s)
	if err != nil {
		return Observation{}
	}
	return Observation{raw: data}
}

// Text serializes the observation for keyword matching. JSON strings are
// unquoted; any other payload is compacted verbatim.
func (o Observation) Text() string {
	if len(o.raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(o.raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, o.raw); err == nil {
		return buf.String()
	}
	return string(o.raw)
}

// IsEmpty reports whether the observation carries no payload.
func (o Observation) IsEmpty() bool {
	return strings.TrimSpace(o.Text()) == ""
}
