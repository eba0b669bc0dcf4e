package catalog

import (
	"encoding/binary"
	"runtime"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/fine-structures/graph-grammar/ggl"
	"github.com/fine-structures/graph-grammar/libggl"
	"github.com/gogo/protobuf/proto"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

/***

Catalog database format:

	gCatalogStateKey => CatalogState (varint MajorVers, MinorVers, NumGraphs)

	'g', GraphSig, seq (uint32 big endian)  => zstd(GraphEncoding)
	...

Graphs that share a GraphSig are kept adjacent, so admitting a graph only walks the entries under its own
signature and runs a full isomorphism check against each.  Distinct graphs that collide on a signature are
told apart by seq.

***/

var (
	gCatalogStateKey = []byte{0x00, 0x00, 0x01}
	gGraphKeyPrefix  = byte('g')
)

const (
	catalogMajorVers = 2026
	catalogMinorVers = 1
)

// CatalogState is the persisted header of a catalog.
type CatalogState struct {
	MajorVers uint64
	MinorVers uint64
	NumGraphs uint64
}

func (state *CatalogState) Marshal() []byte {
	buf := proto.NewBuffer(make([]byte, 0, 16))
	buf.EncodeVarint(state.MajorVers)
	buf.EncodeVarint(state.MinorVers)
	buf.EncodeVarint(state.NumGraphs)
	return buf.Bytes()
}

func (state *CatalogState) Unmarshal(val []byte) error {
	buf := proto.NewBuffer(val)
	var err error
	if state.MajorVers, err = buf.DecodeVarint(); err == nil {
		if state.MinorVers, err = buf.DecodeVarint(); err == nil {
			state.NumGraphs, err = buf.DecodeVarint()
		}
	}
	if err != nil {
		return errors.Wrap(ggl.ErrBadEncoding, "catalog state")
	}
	return nil
}

// catalog is a badger db wrapper holding graphs unique up to isomorphism.
type catalog struct {
	ctx        ggl.CatalogContext
	mu         sync.Mutex
	readOnly   bool
	stateDirty bool
	state      CatalogState
	db         *badger.DB
	enc        *zstd.Encoder
	dec        *zstd.Decoder
}

// OpenCatalog opens (or creates) a catalog at opts.DbPathName, or an in-memory catalog if no path is given.
// The catalog is attached to ctx until it is closed.
func OpenCatalog(ctx ggl.CatalogContext, opts ggl.CatalogOpts) (ggl.Catalog, error) {
	cat := &catalog{
		ctx:      ctx,
		readOnly: opts.ReadOnly,
	}

	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.DetectConflicts = false // single writer
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	// Badger for windows currently does not support read-only mode
	if runtime.GOOS == "windows" {
		dbOpts.ReadOnly = false
	}

	if len(opts.DbPathName) == 0 {
		if opts.ReadOnly {
			return nil, errors.Wrap(ggl.ErrBadCatalogParam, "DbPathName must be specified for read-only catalog")
		}
		dbOpts.InMemory = true
	}

	var err error
	cat.enc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	cat.dec, err = zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}

	cat.db, err = badger.Open(dbOpts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening catalog %q", opts.DbPathName)
	}

	// Once the db is open, the catalog ctx is blocked until the catalog closes
	ctx.AttachCatalog(cat)

	err = cat.loadState()
	if err == badger.ErrKeyNotFound {
		err = nil
		cat.stateDirty = !cat.readOnly
		cat.state.MajorVers = catalogMajorVers
		cat.state.MinorVers = catalogMinorVers
	}

	if err == nil && (cat.state.MajorVers != catalogMajorVers || cat.state.MinorVers != catalogMinorVers) {
		err = errors.Wrapf(ggl.ErrBadCatalogParam, "catalog version %d.%d is incompatible", cat.state.MajorVers, cat.state.MinorVers)
	}

	if err != nil {
		cat.Close()
		return nil, err
	}

	klog.V(2).Infof("opened catalog %q holding %d graphs", opts.DbPathName, cat.state.NumGraphs)
	return cat, nil
}

func (cat *catalog) loadState() error {
	return cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gCatalogStateKey)
		if err == nil {
			err = item.Value(func(val []byte) error {
				return cat.state.Unmarshal(val)
			})
		}
		return err
	})
}

func (cat *catalog) flushState() {
	if cat.stateDirty && cat.db != nil {
		err := cat.db.Update(func(txn *badger.Txn) error {
			return txn.Set(gCatalogStateKey, cat.state.Marshal())
		})
		if err != nil {
			panic(err)
		}
		cat.stateDirty = false
	}
}

func (cat *catalog) Close() error {
	cat.mu.Lock()
	defer cat.mu.Unlock()

	cat.flushState()
	var err error
	if cat.db != nil {
		err = cat.db.Close()
		cat.db = nil
		cat.ctx.DetachCatalog(cat)
	}
	if cat.enc != nil {
		cat.enc.Close()
		cat.enc = nil
	}
	if cat.dec != nil {
		cat.dec.Close()
		cat.dec = nil
	}
	return err
}

func (cat *catalog) IsReadOnly() bool {
	return cat.readOnly
}

func (cat *catalog) NumGraphs() int64 {
	cat.mu.Lock()
	defer cat.mu.Unlock()
	return int64(cat.state.NumGraphs)
}

func formGraphKey(key []byte, sig libggl.GraphSig) []byte {
	key = append(key, gGraphKeyPrefix)
	return append(key, sig[:]...)
}

func (cat *catalog) decodeGraph(val []byte, X *libggl.Graph) error {
	raw, err := cat.dec.DecodeAll(val, nil)
	if err != nil {
		return errors.Wrap(ggl.ErrBadEncoding, err.Error())
	}
	return X.InitFromEncoding(raw)
}

// TryAddGraph adds X if no graph isomorphic to it is already present, returning true if X was added.
// A read-only catalog never adds.
func (cat *catalog) TryAddGraph(X ggl.GraphState) bool {
	if cat.readOnly {
		return false
	}

	cat.mu.Lock()
	defer cat.mu.Unlock()

	Xg := libggl.NewGraphFromView(X)
	defer Xg.Reclaim()
	sig := libggl.Signature(Xg)

	var keyBuf [64]byte
	prefix := formGraphKey(keyBuf[:0], sig)

	txn := cat.db.NewTransaction(true)
	defer txn.Discard()

	it := txn.NewIterator(badger.IteratorOptions{
		PrefetchValues: true,
		PrefetchSize:   10,
		Prefix:         prefix,
	})

	seq := uint32(0)
	found := false
	Y := libggl.NewGraph(nil)
	for it.Rewind(); it.Valid() && !found; it.Next() {
		seq++
		err := it.Item().Value(func(val []byte) error {
			return cat.decodeGraph(val, Y)
		})
		if err != nil {
			panic(err)
		}
		found = libggl.IsIsomorphic(Xg, Y)
	}
	it.Close()
	Y.Reclaim()

	if found {
		return false
	}

	// Alloc a scrap buf since we can't use the stack for commit bufs
	key := binary.BigEndian.AppendUint32(append([]byte(nil), prefix...), seq)
	val := cat.enc.EncodeAll(Xg.AppendEncoding(nil), nil)
	if err := txn.Set(key, val); err != nil {
		panic(err)
	}
	if err := txn.Commit(); err != nil {
		panic(err)
	}

	cat.state.NumGraphs++
	cat.stateDirty = true
	return true
}

// Select sends each graph in the catalog that sel selects to onHit.
// Ownership of each sent graph passes to the receiver.
func (cat *catalog) Select(sel ggl.GraphSelector, onHit ggl.OnGraphHit) {
	cat.mu.Lock()
	db := cat.db
	cat.mu.Unlock()
	if db == nil {
		return
	}

	txn := db.NewTransaction(false)
	defer txn.Discard()

	it := txn.NewIterator(badger.IteratorOptions{
		PrefetchValues: true,
		PrefetchSize:   100,
		Prefix:         []byte{gGraphKeyPrefix},
	})
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		X := libggl.NewGraph(nil)
		err := it.Item().Value(func(val []byte) error {
			return cat.decodeGraph(val, X)
		})
		if err != nil {
			panic(err)
		}
		if sel.SelectsGraph(X) {
			onHit <- X
		} else {
			X.Reclaim()
		}
	}
}
