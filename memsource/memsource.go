// Package memsource is a reference, fully in-memory implementation of the
// source.PageSource collaborator interface. It exists so the index and
// processor packages are independently testable without any real storage
// engine, mirroring how the host library ships several interchangeable
// storage backends behind one interface.
package memsource

import (
	"fmt"

	"github.com/columnfold/tupleproc/errors"
	"github.com/columnfold/tupleproc/hash"
	"github.com/columnfold/tupleproc/schema"
	"github.com/columnfold/tupleproc/source"
)

type column struct {
	name   string
	kind   schema.Kind
	values []interface{}
}

// Source is a column-oriented, in-memory tuple. Build one with Builder.
type Source struct {
	columns  []*column
	byName   map[string]source.FieldID
	rowCount uint64
	attached bool
}

// Attach is idempotent; memsource has nothing to open.
func (s *Source) Attach() error {
	s.attached = true
	return nil
}

// RowCount reports the widest column's length.
func (s *Source) RowCount() (uint64, error) {
	return s.rowCount, nil
}

// Descriptor returns the source's schema handle.
func (s *Source) Descriptor() (source.Descriptor, error) {
	return (*descriptor)(s), nil
}

// ReadValue returns column[id][row] as its native Go representation.
func (s *Source) ReadValue(id source.FieldID, row uint64) (interface{}, error) {
	if int(id) < 0 || int(id) >= len(s.columns) {
		return nil, errors.UnknownField(fmt.Sprintf("field id %d", id))
	}
	col := s.columns[id]
	if row >= uint64(len(col.values)) {
		return nil, fmt.Errorf("memsource: row %d out of range for field %q (%d rows)", row, col.name, len(col.values))
	}
	return col.values[row], nil
}

// descriptor adapts *Source to source.Descriptor without widening Source's
// own public surface.
type descriptor Source

func (d *descriptor) FindField(name string) (source.FieldID, bool) {
	id, ok := d.byName[name]
	if !ok {
		return source.InvalidFieldID, false
	}
	return id, true
}

func (d *descriptor) FieldByID(id source.FieldID) (source.FieldInfo, bool) {
	if int(id) < 0 || int(id) >= len(d.columns) {
		return source.FieldInfo{}, false
	}
	c := d.columns[id]
	return source.FieldInfo{ID: id, Name: c.name, Kind: c.kind}, true
}

func (d *descriptor) TopLevelFields() []source.FieldID {
	ids := make([]source.FieldID, len(d.columns))
	for i := range d.columns {
		ids[i] = source.FieldID(i)
	}
	return ids
}

// CreateModel builds a flat schema.Model over every column. memsource
// tuples have no composite/subfield columns, so bare has no effect here.
func (d *descriptor) CreateModel(bare bool) *schema.Model {
	fields := make([]*schema.Field, len(d.columns))
	for i, c := range d.columns {
		fields[i] = &schema.Field{Name: c.name, Kind: c.kind}
	}
	return schema.NewModel(fields)
}

// Handle adapts a built *Source to the opaque directory-handle variant of
// OpenSpec.Storage.
type Handle struct {
	src *Source
}

// NewHandle wraps src as an OpenSpec storage handle.
func NewHandle(src *Source) Handle {
	return Handle{src: src}
}

// Open returns the wrapped source. It never fails; memsource has nothing
// to attach to at Open time (Attach happens later, from the processor).
func (h Handle) Open() (source.PageSource, error) {
	return h.src, nil
}

// Builder constructs a Source column by column.
type Builder struct {
	src *Source
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{src: &Source{byName: make(map[string]source.FieldID)}}
}

// AddColumn appends a column of the given kind and values. Columns of
// differing lengths are allowed; RowCount reports the widest.
func (b *Builder) AddColumn(name string, kind schema.Kind, values []interface{}) *Builder {
	id := source.FieldID(len(b.src.columns))
	b.src.columns = append(b.src.columns, &column{name: name, kind: kind, values: values})
	b.src.byName[name] = id
	if n := uint64(len(values)); n > b.src.rowCount {
		b.src.rowCount = n
	}
	return b
}

func boxU64(values []uint64) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func boxI64(values []int64) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func boxF32(values []float32) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func boxF64(values []float64) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func boxBool(values []bool) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func boxString(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// AddU64Column adds a u64 column.
func (b *Builder) AddU64Column(name string, values []uint64) *Builder {
	return b.AddColumn(name, schema.KindU64, boxU64(values))
}

// AddI64Column adds an i64 column.
func (b *Builder) AddI64Column(name string, values []int64) *Builder {
	return b.AddColumn(name, schema.KindI64, boxI64(values))
}

// AddF32Column adds an f32 column.
func (b *Builder) AddF32Column(name string, values []float32) *Builder {
	return b.AddColumn(name, schema.KindF32, boxF32(values))
}

// AddF64Column adds an f64 column.
func (b *Builder) AddF64Column(name string, values []float64) *Builder {
	return b.AddColumn(name, schema.KindF64, boxF64(values))
}

// AddBoolColumn adds a bool column.
func (b *Builder) AddBoolColumn(name string, values []bool) *Builder {
	return b.AddColumn(name, schema.KindBool, boxBool(values))
}

// AddStringColumn adds a string column, hashed by content.
func (b *Builder) AddStringColumn(name string, values []string) *Builder {
	return b.AddColumn(name, schema.KindString, boxString(values))
}

// AddUnhashableColumn adds a column of a complex/composite kind that the
// HashVisitor will always refuse. Used to exercise UnsupportedField (S6).
func (b *Builder) AddUnhashableColumn(name string, rowCount int) *Builder {
	values := make([]interface{}, rowCount)
	for i := range values {
		values[i] = struct{ Blob []byte }{}
	}
	return b.AddColumn(name, schema.KindUnhashable, values)
}

// AddInternedStringColumn adds a string column whose repeated values are
// deduplicated behind a BLAKE3 content hash before storage, the in-memory
// analogue of the host library's translation store.
func (b *Builder) AddInternedStringColumn(name string, values []string) *Builder {
	hasher := hash.NewBlake3Hasher()
	dict := make(map[string]string, len(values))
	interned := make([]interface{}, len(values))
	buf := make([]byte, 16)
	for i, v := range values {
		key := string(hasher.CryptoHash([]byte(v), buf))
		canon, ok := dict[key]
		if !ok {
			canon = v
			dict[key] = canon
		}
		interned[i] = canon
	}
	return b.AddColumn(name, schema.KindString, interned)
}

// Build freezes the accumulated columns into a Source.
func (b *Builder) Build() *Source {
	return b.src
}
