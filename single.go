package tupleproc

import (
	"github.com/columnfold/tupleproc/errors"
	"github.com/columnfold/tupleproc/logger"
	"github.com/columnfold/tupleproc/schema"
	"github.com/columnfold/tupleproc/source"
	"github.com/columnfold/tupleproc/stats"
)

// SingleProcessor wraps one tuple: it exclusively owns the page source and
// the Entry materialized from it.
type SingleProcessor struct {
	name   string
	src    source.PageSource
	model  *schema.Model
	entry  *Entry
	logger logger.Logger
	stats  stats.StatsClient

	connected bool
	rowCount  uint64
	fieldIDs  []source.FieldID
	cells     []*ValueCell

	currentRow    uint64
	rowsProcessed uint64
}

// SingleOptions configures NewSingleProcessor's ambient collaborators.
type SingleOptions struct {
	Logger logger.Logger
	Stats  stats.StatsClient
}

func (o SingleOptions) logger() logger.Logger {
	if o.Logger == nil {
		return logger.NopLogger
	}
	return o.Logger
}

func (o SingleOptions) stats() stats.StatsClient {
	if o.Stats == nil {
		return stats.NopStatsClient
	}
	return o.Stats
}

// NewSingleProcessor builds a SingleProcessor over src, named name. model,
// when nil, is derived from src's own descriptor once connected; supply an
// explicit model to pin the Entry's field set in advance (e.g. to project
// to a subset of src's fields).
func NewSingleProcessor(name string, src source.PageSource, model *schema.Model, opts SingleOptions) (*SingleProcessor, error) {
	p := &SingleProcessor{
		name:   name,
		src:    src,
		model:  model,
		logger: opts.logger(),
		stats:  opts.stats(),
	}
	if model != nil {
		p.entry = NewEntry(model)
	}
	return p, nil
}

// Name returns the processor's name.
func (p *SingleProcessor) Name() string { return p.name }

// Entry returns the processor's Entry.
func (p *SingleProcessor) Entry() *Entry { return p.entry }

// Model returns the processor's frozen schema.
func (p *SingleProcessor) Model() *schema.Model { return p.model }

// CurrentRow returns the last row passed to LoadRow.
func (p *SingleProcessor) CurrentRow() uint64 { return p.currentRow }

// RowsProcessed returns the number of successful LoadRow calls.
func (p *SingleProcessor) RowsProcessed() uint64 { return p.rowsProcessed }

// connect idempotently attaches the page source, resolves every Entry
// field to a source.FieldID, and caches the row count. It is triggered by
// the first LoadRow, RowCount, or join-index-build call.
func (p *SingleProcessor) connect() error {
	if p.connected {
		return nil
	}
	if err := p.src.Attach(); err != nil {
		attachErr := errors.AttachFailed(err.Error())
		p.logger.Errorf("single[%s]: %s", p.name, errors.MarshalJSON(attachErr))
		return attachErr
	}
	desc, err := p.src.Descriptor()
	if err != nil {
		return err
	}
	if p.model == nil {
		p.model = desc.CreateModel(false)
		p.entry = NewEntry(p.model)
	}

	leaves := p.model.Leaves()
	p.fieldIDs = make([]source.FieldID, len(leaves))
	p.cells = make([]*ValueCell, len(leaves))
	for i, f := range leaves {
		id, ok := desc.FindField(f.Name)
		if !ok {
			unknownErr := errors.UnknownField(f.Name)
			p.logger.Errorf("single[%s]: %s", p.name, errors.MarshalJSON(unknownErr))
			return unknownErr
		}
		p.fieldIDs[i] = id
		p.cells[i] = p.entry.cellAt(i)
	}

	rowCount, err := p.src.RowCount()
	if err != nil {
		return err
	}
	p.rowCount = rowCount
	p.connected = true
	p.logger.Debugf("single[%s]: connected, %d rows, %d fields", p.name, rowCount, len(leaves))
	return nil
}

// RowCount connects if necessary and reports the tuple's row count.
func (p *SingleProcessor) RowCount() (uint64, error) {
	if err := p.connect(); err != nil {
		return 0, err
	}
	return p.rowCount, nil
}

// LoadRow connects if necessary, then materializes row n into Entry().
func (p *SingleProcessor) LoadRow(n uint64) (uint64, bool, error) {
	if err := p.connect(); err != nil {
		return 0, false, err
	}
	if n >= p.rowCount {
		return 0, false, nil
	}
	for i, id := range p.fieldIDs {
		v, err := p.src.ReadValue(id, n)
		if err != nil {
			return 0, false, err
		}
		p.cells[i].Set(v)
	}
	p.currentRow = n
	p.rowsProcessed++
	p.entry.SetValid(true)
	return n, true, nil
}

// SetEntryPointers rebinds every field in this processor's Entry to point
// at the corresponding (optionally prefixed) field in external, so that a
// later LoadRow writes directly into the parent processor's buffer.
func (p *SingleProcessor) SetEntryPointers(external *Entry, prefix string) error {
	for _, name := range p.entry.Fields() {
		target := name
		if prefix != "" {
			target = prefix + "." + name
		}
		cell, err := external.GetPtr(target)
		if err != nil {
			return err
		}
		if err := p.entry.Bind(name, cell); err != nil {
			return err
		}
	}
	// The cached p.cells aliases must be refreshed since Bind may have
	// replaced the underlying ValueCell pointers.
	if p.connected {
		for i := range p.cells {
			p.cells[i] = p.entry.cellAt(i)
		}
	}
	return nil
}
