package libggl

import (
	"bytes"
	"encoding/base32"
	"encoding/binary"
	"sort"

	"github.com/fine-structures/graph-grammar/ggl"
	"lukechampine.com/blake3"
)

const GraphSigSz = 32

// GraphSig is an isomorphism invariant: isomorphic graphs always have equal signatures.
type GraphSig [GraphSigSz]byte

func (sig GraphSig) String() string {
	return Base32Encoding.EncodeToString(sig[:])
}

// GeohashBase32Alphabet is the alphabet used for Base32Encoding
const GeohashBase32Alphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

var (
	// Base32Encoding is used to encode/decode binary buffer to/from base 32
	Base32Encoding = base32.NewEncoding(GeohashBase32Alphabet).WithPadding(base32.NoPadding)
)

type nodeColor [32]byte

// Signature returns the isomorphism invariant of X.
//
// Node colours start as the hash of each node label and are refined (Weisfeiler-Lehman) by hashing each colour
// with the sorted multiset of (edge label, neighbour colour) pairs, until the number of distinct colours stops growing.
// The signature hashes the node and edge counts with the sorted final colours.
func Signature(X ggl.Graph) GraphSig {
	N := X.NodeCount()
	colors := make([]nodeColor, N)
	for i := range colors {
		colors[i] = blake3.Sum256([]byte(X.NodeLabel(i)))
	}

	var (
		edges   []ggl.Edge
		entries [][]byte
		scrap   []byte
	)
	numEdges := 0
	next := make([]nodeColor, N)
	distinct := countDistinct(colors)
	for round := 0; round < N; round++ {
		numEdges = 0
		for i := 0; i < N; i++ {
			edges = X.AppendOutEdges(i, edges[:0])
			entries = entries[:0]
			for _, e := range edges {
				if e.To >= i {
					numEdges++
				}
				entry := binary.AppendUvarint(nil, uint64(len(e.Label)))
				entry = append(entry, e.Label...)
				entry = append(entry, colors[e.To][:]...)
				entries = append(entries, entry)
			}
			sort.Slice(entries, func(a, b int) bool {
				return bytes.Compare(entries[a], entries[b]) < 0
			})

			hasher := blake3.New(32, nil)
			hasher.Write(colors[i][:])
			for _, entry := range entries {
				hasher.Write(entry)
			}
			scrap = hasher.Sum(scrap[:0])
			copy(next[i][:], scrap)
		}
		colors, next = next, colors

		refined := countDistinct(colors)
		if refined <= distinct {
			break
		}
		distinct = refined
	}

	sorted := append([]nodeColor(nil), colors...)
	sort.Slice(sorted, func(a, b int) bool {
		return bytes.Compare(sorted[a][:], sorted[b][:]) < 0
	})

	hasher := blake3.New(GraphSigSz, nil)
	var hdr [2 * binary.MaxVarintLen64]byte
	n := binary.PutUvarint(hdr[:], uint64(N))
	n += binary.PutUvarint(hdr[n:], uint64(numEdges))
	hasher.Write(hdr[:n])
	for _, c := range sorted {
		hasher.Write(c[:])
	}

	var sig GraphSig
	copy(sig[:], hasher.Sum(nil))
	return sig
}

func countDistinct(colors []nodeColor) int {
	seen := make(map[nodeColor]struct{}, len(colors))
	for _, c := range colors {
		seen[c] = struct{}{}
	}
	return len(seen)
}

// IsIsomorphic returns true if X and Y are isomorphic as labeled multigraphs.
func IsIsomorphic(X, Y ggl.Graph) bool {
	if X.NodeCount() != Y.NodeCount() {
		return false
	}
	Xa, Ya := newAdjacency(X), newAdjacency(Y)
	if Xa.numEdges != Ya.numEdges {
		return false
	}
	if Signature(X) != Signature(Y) {
		return false
	}
	if X.NodeCount() == 0 {
		return true
	}

	// With equal node and edge counts, a monomorphism is an isomorphism.
	P, err := NewPattern(X, "")
	if err != nil {
		return false
	}
	M := NewMatcher(MatchOpts{MaxHits: 1})
	return M.search(P, P, Y, Ya, ggl.ReporterFunc(func(ggl.Pattern, ggl.Graph, ggl.Match) bool {
		return false
	})) > 0
}
