package key

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/i5heu/typecanon/pkg/model"
)

// Every key and every node edge starts with a tag byte. The format is
// prefix-free, so two keys are equal iff their encodings are equal.
const (
	tagNode     = 0x10
	tagPath     = 0x20
	tagExternal = 0x01
	tagNested   = 0x02
)

var (
	ErrShortKey   = errors.New("key: encoding truncated")
	ErrInvalidTag = errors.New("key: invalid tag")
	ErrTrailing   = errors.New("key: trailing bytes after key")
)

// Encode returns the canonical byte encoding of k as a string so it can be
// used directly as a map key.
func Encode(k Key) string {
	return string(appendKey(make([]byte, 0, 64), k))
}

// Digest is the xxhash of an encoded key.
func Digest(enc string) uint64 {
	return xxhash.Sum64String(enc)
}

func appendKey(buf []byte, k Key) []byte { // A
	switch k := k.(type) {
	case Path:
		buf = append(buf, tagPath)
		buf = binary.AppendUvarint(buf, uint64(len(k.Steps)))
		for _, s := range k.Steps {
			buf = binary.AppendUvarint(buf, uint64(s))
		}
	case Node:
		buf = append(buf, tagNode)
		buf = binary.AppendUvarint(buf, uint64(len(k.Label)))
		buf = append(buf, k.Label...)
		buf = binary.AppendUvarint(buf, uint64(len(k.Edges)))
		for _, e := range k.Edges {
			if e.Nested == nil {
				buf = append(buf, tagExternal)
				buf = binary.AppendUvarint(buf, uint64(e.External))
				continue
			}
			buf = append(buf, tagNested)
			buf = appendKey(buf, e.Nested)
		}
	default:
		model.Violation("key: unknown key type %T", k)
	}
	return buf
}

// Decode parses an encoding produced by Encode.
func Decode(enc string) (Key, error) { // A
	b := []byte(enc)
	k, rest, err := decodeKey(b)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, ErrTrailing
	}
	return k, nil
}

func decodeKey(b []byte) (Key, []byte, error) {
	if len(b) < 1 {
		return nil, nil, ErrShortKey
	}
	switch b[0] {
	case tagPath:
		n, rest, err := uvarint(b[1:])
		if err != nil {
			return nil, nil, err
		}
		if n > uint64(len(rest)) {
			return nil, nil, ErrShortKey
		}
		steps := make([]int, n)
		for i := range steps {
			var s uint64
			s, rest, err = uvarint(rest)
			if err != nil {
				return nil, nil, err
			}
			steps[i] = int(s)
		}
		return Path{Steps: steps}, rest, nil

	case tagNode:
		l, rest, err := uvarint(b[1:])
		if err != nil {
			return nil, nil, err
		}
		if uint64(len(rest)) < l {
			return nil, nil, ErrShortKey
		}
		node := Node{Label: model.Label(rest[:l])}
		rest = rest[l:]

		var ne uint64
		ne, rest, err = uvarint(rest)
		if err != nil {
			return nil, nil, err
		}
		if ne > uint64(len(rest)) {
			return nil, nil, ErrShortKey
		}
		node.Edges = make([]Edge, ne)
		for i := range node.Edges {
			if len(rest) < 1 {
				return nil, nil, ErrShortKey
			}
			switch rest[0] {
			case tagExternal:
				var id uint64
				id, rest, err = uvarint(rest[1:])
				if err != nil {
					return nil, nil, err
				}
				node.Edges[i] = Edge{External: model.ID(id)}
			case tagNested:
				var nested Key
				nested, rest, err = decodeKey(rest[1:])
				if err != nil {
					return nil, nil, err
				}
				node.Edges[i] = Edge{External: model.NoID, Nested: nested}
			default:
				return nil, nil, fmt.Errorf("%w: edge tag 0x%02x", ErrInvalidTag, rest[0])
			}
		}
		return node, rest, nil
	}
	return nil, nil, fmt.Errorf("%w: key tag 0x%02x", ErrInvalidTag, b[0])
}

func uvarint(b []byte) (uint64, []byte, error) {
	v, n := binary.Uvarint(b)
	if n <= 0 {
		return 0, nil, ErrShortKey
	}
	return v, b[n:], nil
}
