package tupleproc

import "github.com/columnfold/tupleproc/schema"

// Processor is the common contract shared by SingleProcessor,
// ChainProcessor, and JoinProcessor: attach lazily on first use, materialize
// rows into an owned Entry, and report a total row count.
type Processor interface {
	// Name identifies this processor, used as the namespace prefix when
	// it is added as a join auxiliary.
	Name() string
	// LoadRow materializes row n into Entry() and returns (n, true, nil).
	// It returns (0, false, nil) once n is past the last row. A non-nil
	// error is always fatal.
	LoadRow(n uint64) (uint64, bool, error)
	// RowCount reports the total number of rows this processor exposes,
	// connecting first if necessary.
	RowCount() (uint64, error)
	// Entry returns the processor's output row buffer. Its contents are
	// valid only after a successful LoadRow.
	Entry() *Entry
	// Model returns the frozen schema this processor's Entry was built
	// from.
	Model() *schema.Model
	// CurrentRow reports the last row number passed to LoadRow.
	CurrentRow() uint64
	// RowsProcessed reports the number of successful LoadRow calls.
	RowsProcessed() uint64
	// SetEntryPointers rebinds every field of this processor's Entry to
	// the corresponding (optionally prefixed) field of external, so a
	// later LoadRow writes directly into a parent processor's buffer.
	// SingleProcessor, ChainProcessor, and JoinProcessor all implement
	// it, so any of them may be nested inside a Chain or used as a join
	// auxiliary.
	SetEntryPointers(external *Entry, prefix string) error
}
