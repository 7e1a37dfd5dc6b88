package metadata

// Header keys set on every bus message carrying an envelope.
const (
	KeyTypeTag   = "schemaflow_type_tag"
	KeyPublisher = "schemaflow_publisher"
)

// Metadata represents the headers carried alongside a bus entry.
type Metadata map[string]string

func (m Metadata) cloneWithExtra(extra int) Metadata {
	size := len(m) + extra
	if size <= 0 {
		return Metadata{}
	}

	cloned := make(Metadata, size)
	for k, v := range m {
		cloned[k] = v
	}
	return cloned
}

// Clone returns a shallow copy of the metadata map.
func (m Metadata) Clone() Metadata {
	return m.cloneWithExtra(0)
}

// With returns a copy containing the provided key/value pair.
func (m Metadata) With(key, value string) Metadata {
	cloned := m.cloneWithExtra(1)
	cloned[key] = value
	return cloned
}

// TypeTag returns the event type tag header, if set.
func (m Metadata) TypeTag() string {
	return m[KeyTypeTag]
}

// Publisher returns the publisher identity header, if set.
func (m Metadata) Publisher() string {
	return m[KeyPublisher]
}

// ForEnvelope builds the headers for an envelope of eventType published by source.
// Empty values are left out.
func ForEnvelope(eventType, source string) Metadata {
	md := make(Metadata, 2)
	if eventType != "" {
		md[KeyTypeTag] = eventType
	}
	if source != "" {
		md[KeyPublisher] = source
	}
	return md
}
