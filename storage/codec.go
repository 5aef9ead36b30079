package storage

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/forestrie/go-nestedset/nestedset"
)

// row is the durable form of a node. Integer keys keep the encoding compact
// and let fields be added later without rewriting stored values.
type row struct {
	ID        []byte `cbor:"1,keyasint"`
	Parent    []byte `cbor:"2,keyasint,omitempty"`
	Partition int64  `cbor:"3,keyasint"`
	Depth     int64  `cbor:"4,keyasint"`
	Left      int64  `cbor:"5,keyasint"`
	Right     int64  `cbor:"6,keyasint"`
}

type codec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func newCodec() (codec, error) {
	enc, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return codec{}, err
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return codec{}, err
	}
	return codec{enc: enc, dec: dec}, nil
}

func (c codec) marshalNode(n *nestedset.Node) ([]byte, error) {
	r := row{
		ID:        n.ID[:],
		Partition: n.Partition,
		Depth:     n.Depth,
		Left:      n.Left,
		Right:     n.Right,
	}
	if n.Parent != uuid.Nil {
		r.Parent = n.Parent[:]
	}
	return c.enc.Marshal(&r)
}

func (c codec) unmarshalNode(data []byte) (*nestedset.Node, error) {
	var r row
	if err := c.dec.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	n := &nestedset.Node{
		Partition: r.Partition,
		Depth:     r.Depth,
		Left:      r.Left,
		Right:     r.Right,
	}
	copy(n.ID[:], r.ID)
	copy(n.Parent[:], r.Parent)
	return n, nil
}
