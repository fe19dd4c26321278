// Package schema defines the closed set of field kinds and the frozen
// field-tree model used to allocate an Entry. It has no dependency on the
// hashing, storage, or processor packages so that all of them can depend on
// it without introducing an import cycle.
package schema

import (
	"fmt"

	"github.com/columnfold/tupleproc/errors"
)

// Kind is a field's type tag. The hashable kinds are the closed set named in
// the data model; Unhashable covers any complex/composite field.
type Kind int

const (
	KindUnknown Kind = iota
	KindBool
	KindI8
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindF32
	KindF64
	KindChar
	KindString
	KindUnhashable
)

var kindNames = [...]string{
	"unknown", "bool", "i8", "i16", "i32", "i64",
	"u8", "u16", "u32", "u64", "f32", "f64",
	"char", "string", "unhashable",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Hashable reports whether HashVisitor can compute a hash for this kind.
func (k Kind) Hashable() bool {
	return k > KindUnknown && k < KindUnhashable
}

// Field is a schema-tree node identified by a qualified, dot-joined name.
type Field struct {
	Name     string
	Kind     Kind
	Children []*Field
}

// Leaf reports whether f has no children, i.e. it materializes directly into
// a value slot rather than being a namespace for subfields.
func (f *Field) Leaf() bool {
	return len(f.Children) == 0
}

// Clone returns a deep copy of f.
func (f *Field) Clone() *Field {
	clone := &Field{Name: f.Name, Kind: f.Kind}
	if len(f.Children) > 0 {
		clone.Children = make([]*Field, len(f.Children))
		for i, c := range f.Children {
			clone.Children[i] = c.Clone()
		}
	}
	return clone
}

// WithPrefix returns a deep copy of f with prefix ("." + f.Name is implied
// recursively) prepended to every qualified name in the (sub)tree. It is
// used to graft an auxiliary processor's model under a synthetic namespace
// record during join construction.
func (f *Field) WithPrefix(prefix string) *Field {
	clone := f.Clone()
	renamePrefix(clone, prefix)
	return clone
}

func renamePrefix(f *Field, prefix string) {
	f.Name = prefix + "." + f.Name
	for _, c := range f.Children {
		renamePrefix(c, prefix)
	}
}

// leaves appends every leaf descendant of f (including f itself if it is a
// leaf) to out.
func leaves(f *Field, out []*Field) []*Field {
	if f.Leaf() {
		return append(out, f)
	}
	for _, c := range f.Children {
		out = leaves(c, out)
	}
	return out
}

// Model is a frozen schema snapshot: the ordered list of top-level fields
// plus a flattened, qualified-name index over every leaf field reachable
// from them. It is the schema used to allocate an Entry.
type Model struct {
	top   []*Field
	leafs []*Field
	byName map[string]*Field
}

// NewModel builds a Model from an ordered list of top-level fields.
func NewModel(top []*Field) *Model {
	m := &Model{top: top, byName: make(map[string]*Field)}
	for _, f := range top {
		m.leafs = leaves(f, m.leafs)
	}
	for _, f := range m.leafs {
		m.byName[f.Name] = f
	}
	return m
}

// TopLevel returns the model's top-level fields, in declaration order.
func (m *Model) TopLevel() []*Field {
	return m.top
}

// Leaves returns every leaf field in the model, in declaration order.
func (m *Model) Leaves() []*Field {
	return m.leafs
}

// Field resolves a qualified leaf field name.
func (m *Model) Field(name string) (*Field, bool) {
	f, ok := m.byName[name]
	return f, ok
}

// HasTopLevel reports whether name is one of the model's top-level field
// names. Used by join construction to detect a processor-name collision.
func (m *Model) HasTopLevel(name string) bool {
	for _, f := range m.top {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Clone returns a deep, independent copy of m.
func (m *Model) Clone() *Model {
	top := make([]*Field, len(m.top))
	for i, f := range m.top {
		top[i] = f.Clone()
	}
	return NewModel(top)
}

// WithPrefix returns a deep copy of m with every field (top-level and leaf)
// renamed under a single synthetic top-level record named prefix.
func (m *Model) WithPrefix(prefix string) *Model {
	children := make([]*Field, len(m.top))
	for i, f := range m.top {
		children[i] = f.WithPrefix(prefix)
	}
	record := &Field{Name: prefix, Kind: KindUnhashable, Children: children}
	return NewModel([]*Field{record})
}

// Merge returns a new Model containing the receiver's top-level fields
// followed by other's, failing if any top-level name repeats.
func (m *Model) Merge(other *Model) (*Model, error) {
	seen := make(map[string]bool, len(m.top))
	top := make([]*Field, 0, len(m.top)+len(other.top))
	for _, f := range m.top {
		seen[f.Name] = true
		top = append(top, f)
	}
	for _, f := range other.top {
		if seen[f.Name] {
			return nil, errors.NameCollision(f.Name)
		}
		seen[f.Name] = true
		top = append(top, f)
	}
	return NewModel(top), nil
}
