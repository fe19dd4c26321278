// Package tupleproc composes tuples vertically (Chain) or horizontally
// (Join) and exposes them as a single iterable row source over an abstract
// source.PageSource backend.
package tupleproc

import (
	"github.com/columnfold/tupleproc/errors"
	"github.com/columnfold/tupleproc/schema"
)

// Token is a stable, opaque handle for one field in an Entry, dense in the
// Entry's field set. It survives for the Entry's lifetime and is cheaper to
// pass around a hot read loop than the qualified field name.
type Token int

// ValueCell is the owning storage for one field value. Two slots of the
// same field may share a ValueCell pointer (rebinding), which is how a
// child processor routes its reads directly into a parent's Entry without
// copying.
type ValueCell struct {
	v interface{}
}

// Get returns the cell's current value.
func (c *ValueCell) Get() interface{} {
	if c == nil {
		return nil
	}
	return c.v
}

// Set stores a new value in the cell.
func (c *ValueCell) Set(v interface{}) {
	c.v = v
}

type slot struct {
	name string
	kind schema.Kind
	cell *ValueCell
}

// Entry is a heterogeneous row buffer: an ordered sequence of
// (qualified-field-name -> value slot) pairs, with rebindable pointer
// handles. It is created once per processor and lives for the processor's
// lifetime.
type Entry struct {
	slots  []slot
	byName map[string]int
	valid  bool
}

// NewEntry allocates an Entry over every leaf field of model, each slot
// initially owning its own ValueCell.
func NewEntry(model *schema.Model) *Entry {
	leaves := model.Leaves()
	e := &Entry{
		slots:  make([]slot, len(leaves)),
		byName: make(map[string]int, len(leaves)),
		valid:  true,
	}
	for i, f := range leaves {
		e.slots[i] = slot{name: f.Name, kind: f.Kind, cell: &ValueCell{}}
		e.byName[f.Name] = i
	}
	return e
}

// Has reports whether name resolves to a field in this Entry.
func (e *Entry) Has(name string) bool {
	_, ok := e.byName[name]
	return ok
}

// AddField is idempotent and silently ignores names this Entry does not
// already have a slot for; the Entry's field set is fixed by its Model at
// construction, so there is nothing further to allocate.
func (e *Entry) AddField(name string) {
	_ = name
}

// GetPtr returns the value cell bound to name, failing with UnknownField if
// name is not one of this Entry's fields.
func (e *Entry) GetPtr(name string) (*ValueCell, error) {
	i, ok := e.byName[name]
	if !ok {
		return nil, errors.UnknownField(name)
	}
	return e.slots[i].cell, nil
}

// Bind rebinds name's slot to point at an externally owned cell, so that a
// later Read by the owner of that cell is visible through this Entry too.
func (e *Entry) Bind(name string, external *ValueCell) error {
	i, ok := e.byName[name]
	if !ok {
		return errors.UnknownField(name)
	}
	e.slots[i].cell = external
	return nil
}

// ValueAt returns the current value of the named field without touching
// the backing store.
func (e *Entry) ValueAt(name string) (interface{}, error) {
	i, ok := e.byName[name]
	if !ok {
		return nil, errors.UnknownField(name)
	}
	return e.slots[i].cell.Get(), nil
}

// SetValid sets the Entry's validity flag, cleared on a failed join lookup
// so consumers can distinguish a missing match from end-of-data.
func (e *Entry) SetValid(v bool) {
	e.valid = v
}

// Valid reports the Entry's current validity flag.
func (e *Entry) Valid() bool {
	return e.valid
}

// GetToken returns the stable Token for name, failing with UnknownField if
// unrecognized.
func (e *Entry) GetToken(name string) (Token, error) {
	i, ok := e.byName[name]
	if !ok {
		return -1, errors.UnknownField(name)
	}
	return Token(i), nil
}

// PtrByToken returns the value cell for a previously resolved Token.
func (e *Entry) PtrByToken(t Token) (*ValueCell, error) {
	if int(t) < 0 || int(t) >= len(e.slots) {
		return nil, errors.Errorf("entry: token %d out of range", t)
	}
	return e.slots[t].cell, nil
}

// Fields returns the ordered list of qualified field names in this Entry.
func (e *Entry) Fields() []string {
	names := make([]string, len(e.slots))
	for i, s := range e.slots {
		names[i] = s.name
	}
	return names
}

// Kind returns the type tag of the named field.
func (e *Entry) Kind(name string) (schema.Kind, error) {
	i, ok := e.byName[name]
	if !ok {
		return schema.KindUnknown, errors.UnknownField(name)
	}
	return e.slots[i].kind, nil
}

// cellAt returns the value cell for slot index i, bypassing the name
// lookup. Package-internal: SingleProcessor caches a []*ValueCell parallel
// to its resolved field ids at connect time instead of calling GetPtr once
// per field on every row read.
func (e *Entry) cellAt(i int) *ValueCell {
	return e.slots[i].cell
}
