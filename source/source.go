// Package source defines the page source collaborator interface (§6): the
// abstract backend a processor attaches to, to resolve field identifiers
// and materialize field values at given row numbers. On-disk encoding,
// compression, and multi-threaded reading are all out of scope; this
// package only defines the boundary a concrete storage engine must satisfy.
package source

import "github.com/columnfold/tupleproc/schema"

// FieldID identifies a field within one PageSource's Descriptor.
type FieldID int32

// InvalidFieldID is returned by FindField when a qualified name does not
// resolve to any field.
const InvalidFieldID FieldID = -1

// FieldInfo is the descriptor's view of one field: its id, qualified name,
// and type tag.
type FieldInfo struct {
	ID   FieldID
	Name string
	Kind schema.Kind
}

// Descriptor is the page source's read-only schema handle.
type Descriptor interface {
	// FindField resolves a qualified field name to its id.
	FindField(qualifiedName string) (FieldID, bool)
	// FieldByID returns the info for a previously resolved id.
	FieldByID(id FieldID) (FieldInfo, bool)
	// TopLevelFields returns the ids of the schema's top-level fields.
	TopLevelFields() []FieldID
	// CreateModel builds a schema.Model snapshot from this descriptor. When
	// bare is true, the model contains only the top-level fields
	// themselves with no subfield expansion.
	CreateModel(bare bool) *schema.Model
}

// PageSource is the abstract backend a processor attaches to.
type PageSource interface {
	// Attach idempotently opens the backing storage.
	Attach() error
	// RowCount reports the number of rows in the tuple.
	RowCount() (uint64, error)
	// Descriptor returns the source's schema handle. Valid only after
	// Attach has succeeded.
	Descriptor() (Descriptor, error)
	// ReadValue materializes the value of field id at row, as its native
	// Go representation for the field's Kind (bool, int8, ..., string).
	ReadValue(id FieldID, row uint64) (interface{}, error)
}
