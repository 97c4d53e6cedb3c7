package p2p

import "github.com/google/uuid"

// Channel is the book's handle for a live peer connection. The book never
// touches socket state; it compares channels by identity only, so the handle
// carries nothing but a unique ID the connection layer assigns at accept or
// dial time.
type Channel struct {
	id string
}

// NewChannel mints a fresh connection handle.
func NewChannel() *Channel {
	return &Channel{id: uuid.NewString()}
}

// ID returns the stable identifier of the connection.
func (c *Channel) ID() string {
	if c == nil {
		return ""
	}
	return c.id
}

// Equal reports whether both handles name the same connection.
func (c *Channel) Equal(other *Channel) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.id == other.id
}
