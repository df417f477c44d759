package repositories

import (
	"cipher-chat/errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of an archived message record. The layout is wire compatible
// with a protobuf message, so new fields can be appended without breaking
// old records.
const (
	fieldID          protowire.Number = 1
	fieldRoom        protowire.Number = 2
	fieldAuthor      protowire.Number = 3
	fieldContent     protowire.Number = 4
	fieldAt          protowire.Number = 5
	fieldTransformed protowire.Number = 6
)

func encodeMessage(m DiskMessage) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldID, protowire.BytesType)
	b = protowire.AppendBytes(b, m.ID[:])
	b = protowire.AppendTag(b, fieldRoom, protowire.BytesType)
	b = protowire.AppendString(b, m.Room)
	b = protowire.AppendTag(b, fieldAuthor, protowire.BytesType)
	b = protowire.AppendString(b, m.Author)
	b = protowire.AppendTag(b, fieldContent, protowire.BytesType)
	b = protowire.AppendString(b, m.Content)
	b = protowire.AppendTag(b, fieldAt, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.At.UnixNano()))
	if m.Transformed {
		b = protowire.AppendTag(b, fieldTransformed, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	return b
}

func decodeMessage(b []byte) (DiskMessage, error) {
	var m DiskMessage
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return DiskMessage{}, decodeError(protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case typ == protowire.BytesType && num <= fieldContent:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return DiskMessage{}, decodeError(protowire.ParseError(n))
			}
			if err := m.setBytes(num, v); err != nil {
				return DiskMessage{}, err
			}
			b = b[n:]
		case typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return DiskMessage{}, decodeError(protowire.ParseError(n))
			}
			m.setVarint(num, v)
			b = b[n:]
		default:
			// Unknown field written by a newer version
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return DiskMessage{}, decodeError(protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return m, nil
}

func (m *DiskMessage) setBytes(num protowire.Number, v []byte) error {
	switch num {
	case fieldID:
		id, err := uuid.FromBytes(v)
		if err != nil {
			return decodeError(err)
		}
		m.ID = id
	case fieldRoom:
		m.Room = string(v)
	case fieldAuthor:
		m.Author = string(v)
	case fieldContent:
		m.Content = string(v)
	}
	return nil
}

func (m *DiskMessage) setVarint(num protowire.Number, v uint64) {
	switch num {
	case fieldAt:
		m.At = time.Unix(0, int64(v)).UTC()
	case fieldTransformed:
		m.Transformed = protowire.DecodeBool(v)
	}
}

func decodeError(err error) error {
	return fmt.Errorf("%w: archived message: %v", errors.ErrInvalidPayload, err)
}
