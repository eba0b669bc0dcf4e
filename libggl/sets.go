package libggl

import (
	"encoding/binary"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/fine-structures/graph-grammar/ggl"
)

// GraphSet is a ggl.GraphAdder backed by an in-memory badger db, for sets too large to keep as Graph instances.
// Each admitted graph is stored under its Signature followed by a sequence number.
//
// After one or more calls to TryAddGraph(), call Close() for cleanup.
type GraphSet struct {
	mu    sync.Mutex
	db    *badger.DB
	count int
}

func NewGraphSet() *GraphSet {
	return &GraphSet{}
}

func (set *GraphSet) autoOpen() {
	if set.db == nil {
		dbOpts := badger.DefaultOptions("").WithInMemory(true)
		dbOpts.Logger = nil
		dbOpts.MetricsEnabled = false

		var err error
		set.db, err = badger.Open(dbOpts)
		if err != nil {
			panic(err)
		}
	}
}

// NumGraphs returns the number of graphs admitted so far.
func (set *GraphSet) NumGraphs() int {
	set.mu.Lock()
	defer set.mu.Unlock()
	return set.count
}

// TryAddGraph adds X if no isomorphic graph is already in the set, returning true if X was added.
func (set *GraphSet) TryAddGraph(X ggl.GraphState) bool {
	set.mu.Lock()
	defer set.mu.Unlock()
	set.autoOpen()

	Xg := NewGraphFromView(X)
	defer Xg.Reclaim()
	sig := Signature(Xg)

	txn := set.db.NewTransaction(true)
	defer txn.Discard()

	it := txn.NewIterator(badger.IteratorOptions{Prefix: sig[:]})
	seq := uint32(0)
	found := false
	Y := NewGraph(nil)
	for it.Rewind(); it.Valid() && !found; it.Next() {
		seq++
		err := it.Item().Value(func(val []byte) error {
			return Y.InitFromEncoding(val)
		})
		if err != nil {
			panic(err)
		}
		found = IsIsomorphic(Xg, Y)
	}
	it.Close()
	Y.Reclaim()

	if found {
		return false
	}

	key := binary.BigEndian.AppendUint32(append([]byte(nil), sig[:]...), seq)
	err := txn.Set(key, Xg.AppendEncoding(nil))
	if err == nil {
		err = txn.Commit()
	}
	if err != nil {
		panic(err)
	}
	set.count++
	return true
}

// Close removes all previously added items from this set.
func (set *GraphSet) Close() {
	set.mu.Lock()
	defer set.mu.Unlock()
	if set.db != nil {
		set.db.Close()
		set.db = nil
		set.count = 0
	}
}
