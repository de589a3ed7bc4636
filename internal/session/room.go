package session

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// RoomID is the rendezvous code two peers share. Empty means no room.
type RoomID string

// ErrInvalidRoom is returned when a room code contains unexpected characters.
var ErrInvalidRoom = errors.New("session: invalid room code")

const (
	roomCodeLen    = 6
	maxRoomCodeLen = 32
)

// NewRoomID creates a 6-character uppercase base32 room code.
func NewRoomID() RoomID {
	b := make([]byte, 4) // 32 bits encode to 7 base32 chars, we take 6
	if _, err := rand.Read(b); err != nil {
		return RoomID(fmt.Sprintf("%06X", time.Now().UnixNano()&0xFFFFFF))
	}
	return RoomID(base32.StdEncoding.EncodeToString(b)[:roomCodeLen])
}

// ParseRoom extracts a room code from a bare code, a "#CODE" fragment, or a
// URL whose fragment carries the code. An empty fragment yields an empty
// RoomID and no error: the caller hosts instead of joining.
func ParseRoom(s string) (RoomID, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "#") || strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			s = s[strings.LastIndex(s, "#")+1:]
		} else {
			s = u.Fragment
		}
	}
	s = strings.ToUpper(strings.Trim(s, " /"))
	if s == "" {
		return "", nil
	}
	if len(s) > maxRoomCodeLen {
		return "", fmt.Errorf("%w: %q is too long", ErrInvalidRoom, s)
	}
	for _, c := range s {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return "", fmt.Errorf("%w: %q", ErrInvalidRoom, s)
		}
	}
	return RoomID(s), nil
}

// Fragment renders the code as a URL fragment appended to base.
func (r RoomID) Fragment(base string) string {
	return strings.TrimRight(base, "#") + "#" + string(r)
}
