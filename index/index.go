// Package index implements the multi-field Index (§4.2): a hash map from a
// combined key-tuple hash to the set of row numbers that produced it, plus
// the narrowing equality check against stored key values that a hash
// collision requires.
package index

import (
	"github.com/columnfold/tupleproc/errors"
	"github.com/columnfold/tupleproc/hash"
	"github.com/columnfold/tupleproc/logger"
	"github.com/columnfold/tupleproc/schema"
	"github.com/columnfold/tupleproc/source"
	"github.com/columnfold/tupleproc/stats"
)

// DefaultMaxEntries is the cap applied when Options.MaxEntries is zero,
// matching the 64Mi row ceiling named in the data model.
const DefaultMaxEntries = 64 * 1024 * 1024

// Options configures Build and NewBuilder.
type Options struct {
	// HashAlgorithm selects the hash.Visitor engine ("" defaults to xxhash).
	HashAlgorithm string
	// MaxEntries caps the number of rows an Index may hold. Zero selects
	// DefaultMaxEntries.
	MaxEntries uint64
	Logger     logger.Logger
	Stats      stats.StatsClient
}

func (o Options) maxEntries() uint64 {
	if o.MaxEntries == 0 {
		return DefaultMaxEntries
	}
	return o.MaxEntries
}

func (o Options) logger() logger.Logger {
	if o.Logger == nil {
		return logger.NopLogger
	}
	return o.Logger
}

func (o Options) stats() stats.StatsClient {
	if o.Stats == nil {
		return stats.NopStatsClient
	}
	return o.Stats
}

// entry is one key tuple's stored values plus the row numbers that share
// its combined hash bucket, kept so a bucket hit can be narrowed by an
// exact value comparison before being reported as a match.
type entry struct {
	keys []interface{}
	rows []uint64
}

// Index maps a key-tuple to the row numbers that produced it. It is built
// once (Build, or Builder.Freeze) and is read-only thereafter.
type Index struct {
	keyKinds []schema.Kind
	visitor  hash.Visitor
	buckets  map[uint64][]*entry
	size     uint64
}

// Builder accumulates (row, keys) pairs incrementally, for callers such as
// the join processor that discover auxiliary rows one at a time rather than
// scanning a single PageSource up front.
type Builder struct {
	visitor  hash.Visitor
	keyKinds []schema.Kind
	buckets  map[uint64][]*entry
	size     uint64
	maxSize  uint64
	logger   logger.Logger
	stats    stats.StatsClient
}

// NewBuilder returns an empty Builder over fields of the given kinds, in
// key-tuple order, using the hash engine named in opts.
func NewBuilder(keyKinds []schema.Kind, opts Options) (*Builder, error) {
	visitor, err := hash.New(opts.HashAlgorithm)
	if err != nil {
		return nil, err
	}
	return &Builder{
		visitor:  visitor,
		keyKinds: keyKinds,
		buckets:  make(map[uint64][]*entry),
		maxSize:  opts.maxEntries(),
		logger:   opts.logger(),
		stats:    opts.stats(),
	}, nil
}

// Add records one row's key-tuple values, in the same order the Builder was
// constructed with.
func (b *Builder) Add(row uint64, keys []interface{}) error {
	if len(keys) != len(b.keyKinds) {
		return errors.ArityMismatch(len(b.keyKinds), len(keys))
	}
	if b.size >= b.maxSize {
		b.stats.Count("index.overflow", 1, 1)
		return errors.IndexTooLarge(b.maxSize)
	}
	h, err := combinedHash(b.visitor, b.keyKinds, keys)
	if err != nil {
		return err
	}
	insert(b.buckets, h, keys, row)
	b.size++
	b.stats.Count("index.rows_indexed", 1, 1)
	return nil
}

// Freeze finalizes the Builder into a read-only Index.
func (b *Builder) Freeze() *Index {
	return &Index{keyKinds: b.keyKinds, visitor: b.visitor, buckets: b.buckets, size: b.size}
}

// Len reports the number of distinct rows recorded so far.
func (b *Builder) Len() uint64 {
	return b.size
}

// Build scans every row of src and indexes it by the named key fields,
// resolving field ids and kinds from src's Descriptor.
func Build(src source.PageSource, keyFieldNames []string, opts Options) (*Index, error) {
	desc, err := src.Descriptor()
	if err != nil {
		return nil, err
	}
	ids := make([]source.FieldID, len(keyFieldNames))
	kinds := make([]schema.Kind, len(keyFieldNames))
	for i, name := range keyFieldNames {
		id, ok := desc.FindField(name)
		if !ok {
			return nil, errors.UnknownField(name)
		}
		info, _ := desc.FieldByID(id)
		ids[i] = id
		kinds[i] = info.Kind
	}

	b, err := NewBuilder(kinds, opts)
	if err != nil {
		return nil, err
	}

	rowCount, err := src.RowCount()
	if err != nil {
		return nil, err
	}

	keys := make([]interface{}, len(ids))
	for row := uint64(0); row < rowCount; row++ {
		for i, id := range ids {
			v, err := src.ReadValue(id, row)
			if err != nil {
				return nil, err
			}
			keys[i] = v
		}
		if err := b.Add(row, keys); err != nil {
			return nil, err
		}
	}
	opts.logger().Debugf("index: built %d entries over %d rows", b.Len(), rowCount)
	return b.Freeze(), nil
}

func insert(buckets map[uint64][]*entry, h uint64, keys []interface{}, row uint64) {
	bucket := buckets[h]
	for _, e := range bucket {
		if keysEqual(e.keys, keys) {
			e.rows = append(e.rows, row)
			return
		}
	}
	buckets[h] = append(bucket, &entry{keys: append([]interface{}(nil), keys...), rows: []uint64{row}})
}

func keysEqual(a, b []interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func combinedHash(v hash.Visitor, kinds []schema.Kind, keys []interface{}) (uint64, error) {
	hashes := make([]uint64, len(keys))
	for i, k := range keys {
		h, err := v.Hash(kinds[i], k)
		if err != nil {
			return 0, err
		}
		hashes[i] = h
	}
	return hash.Fold(hashes), nil
}

// Hash computes the combined hash for a key tuple using idx's configured
// engine, for use by FirstEntry/AllEntries callers that look up by value.
// It fails with ArityMismatch if keys does not have exactly one value per
// indexed field.
func (idx *Index) Hash(keys []interface{}) (uint64, error) {
	if len(keys) != len(idx.keyKinds) {
		return 0, errors.ArityMismatch(len(idx.keyKinds), len(keys))
	}
	return combinedHash(idx.visitor, idx.keyKinds, keys)
}

// FirstEntry returns the first row number recorded for the given key tuple,
// or false if no row matches.
func (idx *Index) FirstEntry(keys ...interface{}) (uint64, bool, error) {
	h, err := idx.Hash(keys)
	if err != nil {
		return 0, false, err
	}
	for _, e := range idx.buckets[h] {
		if keysEqual(e.keys, keys) {
			if len(e.rows) == 0 {
				return 0, false, nil
			}
			return e.rows[0], true, nil
		}
	}
	return 0, false, nil
}

// AllEntries returns every row number recorded for the given key tuple.
func (idx *Index) AllEntries(keys ...interface{}) ([]uint64, error) {
	h, err := idx.Hash(keys)
	if err != nil {
		return nil, err
	}
	for _, e := range idx.buckets[h] {
		if keysEqual(e.keys, keys) {
			return e.rows, nil
		}
	}
	return nil, nil
}

// Len reports the number of distinct rows indexed.
func (idx *Index) Len() uint64 {
	return idx.size
}
