package metadata

import (
	"maps"

	"github.com/ThreeDotsLabs/watermill/message"
)

// FromWatermill copies the headers of a received message. The result is never nil.
func FromWatermill(md message.Metadata) Metadata {
	if md == nil {
		return Metadata{}
	}
	return Metadata(maps.Clone(md))
}

// ToWatermill copies headers onto a message metadata map. The result is never nil.
func ToWatermill(md Metadata) message.Metadata {
	if md == nil {
		return message.Metadata{}
	}
	return message.Metadata(maps.Clone(md))
}
