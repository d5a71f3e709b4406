package realtime

import (
	"strconv"
	"strings"

	"github.com/go-stomp/stomp/v3/frame"
)

// UserIDHeader carries the caller's user id on inbound frames.
const UserIDHeader = "USER_ID"

// Principal is the identity bound to a realtime connection.
type Principal struct {
	name string
}

func NewPrincipal(name string) *Principal {
	return &Principal{name: name}
}

func (p *Principal) Name() string {
	if p == nil {
		return ""
	}
	return p.name
}

// UserID parses the principal name as a numeric user id.
func (p *Principal) UserID() (uint64, bool) {
	if p == nil {
		return 0, false
	}
	id, err := strconv.ParseUint(p.name, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// BindIdentity returns the identity to use for a frame and every later frame on
// the same connection. A bound identity is never replaced. A missing or blank
// USER_ID header leaves the connection unauthenticated.
//
// The header is client supplied and not verified against any auth system, so a
// client can claim any user id.
func BindIdentity(h *frame.Header, current *Principal) *Principal {
	if current != nil || h == nil {
		return current
	}
	v, ok := h.Contains(UserIDHeader)
	if !ok {
		return current
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return current
	}
	return NewPrincipal(v)
}
