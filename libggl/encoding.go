package libggl

import (
	"github.com/fine-structures/graph-grammar/ggl"
	"github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"
)

// GraphEncoding is the binary form of a Graph, as stored in a catalog.
type GraphEncoding []byte

const graphEncodingVersion = 1

// AppendEncoding appends the binary encoding of X to dst:
//
//	version, numNodes, label[numNodes], numEdges, (from, to, label)[numEdges]
//
// Integers are varints and labels are length-prefixed strings.
func (X *Graph) AppendEncoding(dst []byte) GraphEncoding {
	buf := proto.NewBuffer(dst)
	buf.EncodeVarint(graphEncodingVersion)
	buf.EncodeVarint(uint64(len(X.labels)))
	for _, label := range X.labels {
		buf.EncodeStringBytes(label)
	}
	buf.EncodeVarint(uint64(len(X.edges)))
	for _, e := range X.edges {
		buf.EncodeVarint(uint64(e.From))
		buf.EncodeVarint(uint64(e.To))
		buf.EncodeStringBytes(e.Label)
	}
	return buf.Bytes()
}

// InitFromEncoding resets X to the graph in the given encoding.
func (X *Graph) InitFromEncoding(enc []byte) error {
	X.Init(nil)

	buf := proto.NewBuffer(enc)
	version, err := buf.DecodeVarint()
	if err != nil {
		return errors.Wrap(ggl.ErrBadEncoding, "missing version")
	}
	if version != graphEncodingVersion {
		return errors.Wrapf(ggl.ErrBadEncoding, "unsupported version %d", version)
	}

	numNodes, err := buf.DecodeVarint()
	if err != nil {
		return errors.Wrap(ggl.ErrBadEncoding, "missing node count")
	}
	if numNodes > uint64(len(enc)) {
		return errors.Wrapf(ggl.ErrBadEncoding, "node count %d exceeds encoding size", numNodes)
	}
	for i := uint64(0); i < numNodes; i++ {
		label, err := buf.DecodeStringBytes()
		if err != nil {
			return errors.Wrapf(ggl.ErrBadEncoding, "node %d label", i)
		}
		X.AddNode(label)
	}

	numEdges, err := buf.DecodeVarint()
	if err != nil {
		return errors.Wrap(ggl.ErrBadEncoding, "missing edge count")
	}
	if numEdges > uint64(len(enc)) {
		return errors.Wrapf(ggl.ErrBadEncoding, "edge count %d exceeds encoding size", numEdges)
	}
	for i := uint64(0); i < numEdges; i++ {
		from, err1 := buf.DecodeVarint()
		to, err2 := buf.DecodeVarint()
		label, err3 := buf.DecodeStringBytes()
		if err1 != nil || err2 != nil || err3 != nil {
			return errors.Wrapf(ggl.ErrBadEncoding, "edge %d", i)
		}
		if from >= numNodes || to >= numNodes {
			return errors.Wrapf(ggl.ErrBadEncoding, "edge %d: node out of range", i)
		}
		X.AddEdge(int(from), int(to), label)
	}
	return nil
}

func NewGraphFromEncoding(enc []byte) (*Graph, error) {
	X := NewGraph(nil)
	if err := X.InitFromEncoding(enc); err != nil {
		X.Reclaim()
		return nil, err
	}
	return X, nil
}
