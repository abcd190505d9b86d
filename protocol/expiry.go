package protocol

import "time"

// Default TTLs by message type. Pulls and completions are time-sensitive:
// a stale pull would hand a robot work it is no longer waiting for.
var defaultTTLs = map[string]time.Duration{
	TypeCommandPull:     30 * time.Second,
	TypeCommandComplete: 2 * time.Minute,
	TypeCommandAssigned: 30 * time.Second,

	TypeRobotRegister:    5 * time.Minute,
	TypeLocationRegister: 5 * time.Minute,

	TypeNotification: 60 * time.Minute,
}

// FallbackTTL is used when no specific TTL is configured.
const FallbackTTL = 10 * time.Minute

// DefaultTTLFor returns the default TTL for a message type.
func DefaultTTLFor(msgType string) time.Duration {
	if ttl, ok := defaultTTLs[msgType]; ok {
		return ttl
	}
	return FallbackTTL
}

// IsExpired returns true if the envelope has passed its expiry time.
func IsExpired(env *Envelope) bool {
	return expired(env.ExpiresAt)
}

// IsExpiredHeader checks expiry using only the raw header.
func IsExpiredHeader(hdr *RawHeader) bool {
	return expired(hdr.ExpiresAt)
}

func expired(at time.Time) bool {
	if at.IsZero() {
		return false
	}
	return time.Now().UTC().After(at)
}
