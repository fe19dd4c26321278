package tupleproc

import (
	"github.com/columnfold/tupleproc/logger"
	"github.com/columnfold/tupleproc/schema"
	"github.com/columnfold/tupleproc/stats"
)

// ChainProcessor composes N inner processors as a concatenation: logical
// row numbers [0, N) where N = sum of the inners' row counts.
//
// Every inner processor's Entry shares its ValueCells with the outer
// Entry from construction onward (via SetEntryPointers), so whichever
// inner is active at a given row writes directly into the shared outer
// buffer. This sidesteps a per-step rebind-on-switch: the spec's
// algorithm rebinds the outer Entry into the newly active inner's Entry
// each time the active inner changes, but since every inner was already
// wired to share the outer's cells at construction, that rebind is a
// no-op and is not performed again here.
type ChainProcessor struct {
	name   string
	inners []Processor
	model  *schema.Model
	entry  *Entry
	logger logger.Logger
	stats  stats.StatsClient

	rowCounts     []uint64
	totalRows     uint64
	rowCountKnown bool

	activeInner   int
	currentRow    uint64
	rowsProcessed uint64
}

// ChainOptions configures NewChainProcessor's ambient collaborators.
type ChainOptions struct {
	Logger logger.Logger
	Stats  stats.StatsClient
}

func (o ChainOptions) logger() logger.Logger {
	if o.Logger == nil {
		return logger.NopLogger
	}
	return o.Logger
}

func (o ChainOptions) stats() stats.StatsClient {
	if o.Stats == nil {
		return stats.NopStatsClient
	}
	return o.Stats
}

// NewChainProcessor concatenates inners in order. Every inner must already
// be connectable (RowCount/Model resolvable); NewChainProcessor forces that
// by calling RowCount on each.
func NewChainProcessor(name string, inners []Processor, opts ChainOptions) (*ChainProcessor, error) {
	rowCounts := make([]uint64, len(inners))
	var total uint64
	for i, inner := range inners {
		n, err := inner.RowCount()
		if err != nil {
			return nil, err
		}
		rowCounts[i] = n
		total += n
	}

	var model *schema.Model
	if len(inners) > 0 {
		model = inners[0].Model().Clone()
	} else {
		model = schema.NewModel(nil)
	}
	entry := NewEntry(model)

	p := &ChainProcessor{
		name:          name,
		inners:        inners,
		model:         model,
		entry:         entry,
		logger:        opts.logger(),
		stats:         opts.stats(),
		rowCounts:     rowCounts,
		totalRows:     total,
		rowCountKnown: true,
		activeInner:   -1,
	}
	for _, inner := range inners {
		if err := inner.SetEntryPointers(entry, ""); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// SetEntryPointers rebinds every field of this Chain's Entry into
// external's cells, then re-propagates the new cells to every inner so
// each inner's LoadRow keeps writing into the currently bound buffer.
func (p *ChainProcessor) SetEntryPointers(external *Entry, prefix string) error {
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
	for _, inner := range p.inners {
		if err := inner.SetEntryPointers(p.entry, ""); err != nil {
			return err
		}
	}
	return nil
}

// Name returns the chain's name.
func (p *ChainProcessor) Name() string { return p.name }

// Entry returns the chain's outer Entry.
func (p *ChainProcessor) Entry() *Entry { return p.entry }

// Model returns the chain's frozen schema, cloned from inner 0.
func (p *ChainProcessor) Model() *schema.Model { return p.model }

// CurrentRow returns the last row passed to LoadRow.
func (p *ChainProcessor) CurrentRow() uint64 { return p.currentRow }

// RowsProcessed returns the number of successful LoadRow calls.
func (p *ChainProcessor) RowsProcessed() uint64 { return p.rowsProcessed }

// RowCount reports the sum of every inner's row count.
func (p *ChainProcessor) RowCount() (uint64, error) {
	return p.totalRows, nil
}

// LoadRow walks the inner processors in order, decrementing the target row
// by each inner's row count, until it finds the inner that owns row n.
func (p *ChainProcessor) LoadRow(n uint64) (uint64, bool, error) {
	if n >= p.totalRows {
		return 0, false, nil
	}
	local := n
	for i, count := range p.rowCounts {
		if local < count {
			if i != p.activeInner {
				p.stats.Count("chain.switch", 1, 1)
				p.activeInner = i
			}
			_, ok, err := p.inners[i].LoadRow(local)
			if err != nil {
				return 0, false, err
			}
			if !ok {
				return 0, false, nil
			}
			p.currentRow = n
			p.rowsProcessed++
			p.entry.SetValid(true)
			return n, true, nil
		}
		local -= count
	}
	return 0, false, nil
}

// InnerRowCount reports the row count of inner i, resolved when the chain
// was constructed.
func (p *ChainProcessor) InnerRowCount(i int) uint64 {
	return p.rowCounts[i]
}

// Inners returns the chain's inner processors in order.
func (p *ChainProcessor) Inners() []Processor {
	return p.inners
}
