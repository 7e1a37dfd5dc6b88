// Package envelope builds and parses the typed wire envelope that carries one
// event: {type, data, timestamp, source, id}.
//
// A Protocol is built once from a schema registry. It holds one Codec per
// schema and routes incoming entries to them by type tag. All operations are
// synchronous and safe for concurrent use.
package envelope

// Envelope is the wire record of one event.
type Envelope struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	Timestamp int64          `json:"timestamp"`
	Source    string         `json:"source"`
	ID        string         `json:"id"`
}

// BusEntry is the wrapper a subscriber receives from the bus.
type BusEntry struct {
	Body    string `json:"body"`
	TypeTag string `json:"typeTag,omitempty"`
}

// PublishInput holds the arguments of a bus publish call.
type PublishInput struct {
	Destination string `json:"destination"`
	TypeTag     string `json:"typeTag"`
	Publisher   string `json:"publisher"`
	Body        string `json:"body"`
}

// Entry returns the bus entry a subscriber would receive for p.
func (p PublishInput) Entry() BusEntry {
	return BusEntry{Body: p.Body, TypeTag: p.TypeTag}
}

// Config carries the settings the protocol needs at call time.
type Config struct {
	// Source is the publisher identity stamped into every envelope.
	// BuildData fails without it.
	Source string
	// Destination is the bus topic. Build fails without it.
	Destination string
}
