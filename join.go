package tupleproc

import (
	"github.com/columnfold/tupleproc/errors"
	"github.com/columnfold/tupleproc/index"
	"github.com/columnfold/tupleproc/logger"
	"github.com/columnfold/tupleproc/schema"
	"github.com/columnfold/tupleproc/stats"
)

// MaxJoinKeys is the fixed limit on the number of join-key fields.
const MaxJoinKeys = 4

type auxiliary struct {
	name string
	proc Processor
	idx  *index.Index
}

// JoinProcessor composes one primary processor and K auxiliary processors,
// matched either by row alignment (empty join-key list) or by an Index
// lookup on a shared join-key field list.
type JoinProcessor struct {
	name    string
	primary Processor
	auxs    []*auxiliary
	keys    []string
	model   *schema.Model
	entry   *Entry
	logger  logger.Logger
	stats   stats.StatsClient
	opts    index.Options

	keyTokens []Token

	started       bool
	indicesBuilt  bool
	currentRow    uint64
	rowsProcessed uint64
}

// JoinOptions configures NewJoinProcessor's ambient collaborators and the
// per-auxiliary Index build options.
type JoinOptions struct {
	Logger       logger.Logger
	Stats        stats.StatsClient
	IndexOptions index.Options
}

func (o JoinOptions) logger() logger.Logger {
	if o.Logger == nil {
		return logger.NopLogger
	}
	return o.Logger
}

func (o JoinOptions) stats() stats.StatsClient {
	if o.Stats == nil {
		return stats.NopStatsClient
	}
	return o.Stats
}

// NewJoinProcessor builds a JoinProcessor over primary and auxs, matched on
// joinKeys (empty for an aligned join). auxNames must be parallel to auxs
// and becomes each auxiliary's namespace prefix in the join model.
func NewJoinProcessor(name string, primary Processor, auxNames []string, auxs []Processor, joinKeys []string, opts JoinOptions) (*JoinProcessor, error) {
	if len(joinKeys) > MaxJoinKeys {
		return nil, errors.TooManyJoinFields(len(joinKeys), MaxJoinKeys)
	}
	if dup := firstDuplicate(joinKeys); dup != "" {
		return nil, errors.DuplicateJoinField(dup)
	}
	if len(auxNames) != len(auxs) {
		return nil, errors.ArityMismatch(len(auxs), len(auxNames))
	}
	if dup := firstDuplicate(auxNames); dup != "" {
		return nil, errors.NameCollision(dup)
	}

	if _, err := primary.RowCount(); err != nil {
		return nil, err
	}
	model := primary.Model().Clone()

	for _, auxName := range auxNames {
		if model.HasTopLevel(auxName) {
			return nil, errors.NameCollision(auxName)
		}
	}
	for i, aux := range auxs {
		if _, err := aux.RowCount(); err != nil {
			return nil, err
		}
		wrapped := aux.Model().WithPrefix(auxNames[i])
		merged, err := model.Merge(wrapped)
		if err != nil {
			return nil, err
		}
		model = merged
	}

	entry := NewEntry(model)
	if err := primary.SetEntryPointers(entry, ""); err != nil {
		return nil, err
	}

	auxiliaries := make([]*auxiliary, len(auxs))
	for i, aux := range auxs {
		if err := aux.SetEntryPointers(entry, auxNames[i]); err != nil {
			return nil, err
		}
		auxiliaries[i] = &auxiliary{name: auxNames[i], proc: aux}
	}

	p := &JoinProcessor{
		name:    name,
		primary: primary,
		auxs:    auxiliaries,
		keys:    joinKeys,
		model:   model,
		entry:   entry,
		logger:  opts.logger(),
		stats:   opts.stats(),
		opts:    opts.IndexOptions,
	}

	if len(joinKeys) > 0 {
		tokens := make([]Token, len(joinKeys))
		for i, k := range joinKeys {
			t, err := entry.GetToken(k)
			if err != nil {
				return nil, err
			}
			tokens[i] = t
		}
		p.keyTokens = tokens
	}
	return p, nil
}

func firstDuplicate(names []string) string {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return n
		}
		seen[n] = true
	}
	return ""
}

// Name returns the join's name.
func (p *JoinProcessor) Name() string { return p.name }

// Entry returns the join's outer Entry.
func (p *JoinProcessor) Entry() *Entry { return p.entry }

// Model returns the join's frozen schema: the primary's fields plus one
// namespaced record per auxiliary.
func (p *JoinProcessor) Model() *schema.Model { return p.model }

// CurrentRow returns the last row passed to LoadRow.
func (p *JoinProcessor) CurrentRow() uint64 { return p.currentRow }

// RowsProcessed returns the number of successful LoadRow calls.
func (p *JoinProcessor) RowsProcessed() uint64 { return p.rowsProcessed }

// RowCount defers entirely to the primary: join output is never longer
// than the primary.
func (p *JoinProcessor) RowCount() (uint64, error) {
	return p.primary.RowCount()
}

// SetEntryPointers rebinds every field of the join's Entry into external's
// cells, then re-propagates the new cells to the primary and every
// auxiliary, so a JoinProcessor may itself be nested as a Chain inner or a
// join auxiliary without its members writing into stale buffers.
func (p *JoinProcessor) SetEntryPointers(external *Entry, prefix string) error {
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
	if err := p.primary.SetEntryPointers(p.entry, ""); err != nil {
		return err
	}
	for _, aux := range p.auxs {
		if err := aux.proc.SetEntryPointers(p.entry, aux.name); err != nil {
			return err
		}
	}
	return nil
}

// AddAuxiliary appends an auxiliary processor after construction. It fails
// with AddAuxAfterStart once any row has been loaded.
func (p *JoinProcessor) AddAuxiliary(auxName string, aux Processor) error {
	if p.started {
		return errors.AddAuxAfterStart()
	}
	if p.model.HasTopLevel(auxName) {
		return errors.NameCollision(auxName)
	}
	for _, a := range p.auxs {
		if a.name == auxName {
			return errors.NameCollision(auxName)
		}
	}
	if _, err := aux.RowCount(); err != nil {
		return err
	}
	wrapped := aux.Model().WithPrefix(auxName)
	merged, err := p.model.Merge(wrapped)
	if err != nil {
		return err
	}

	newEntry := NewEntry(merged)
	if err := p.primary.SetEntryPointers(newEntry, ""); err != nil {
		return err
	}
	for _, a := range p.auxs {
		if err := a.proc.SetEntryPointers(newEntry, a.name); err != nil {
			return err
		}
	}
	if err := aux.SetEntryPointers(newEntry, auxName); err != nil {
		return err
	}

	p.model = merged
	p.entry = newEntry
	p.auxs = append(p.auxs, &auxiliary{name: auxName, proc: aux})

	if len(p.keys) > 0 {
		tokens := make([]Token, len(p.keys))
		for i, k := range p.keys {
			t, err := newEntry.GetToken(k)
			if err != nil {
				return err
			}
			tokens[i] = t
		}
		p.keyTokens = tokens
	}
	return nil
}

// LoadRow loads primary row n, then matches each auxiliary either by row
// alignment (no join keys) or by an Index lookup on the join-key values.
func (p *JoinProcessor) LoadRow(n uint64) (uint64, bool, error) {
	p.started = true

	row, ok, err := p.primary.LoadRow(n)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}
	p.entry.SetValid(true)

	if len(p.keys) == 0 {
		for _, aux := range p.auxs {
			if _, ok, err := aux.proc.LoadRow(n); err != nil {
				return 0, false, err
			} else if !ok {
				p.entry.SetValid(false)
			}
		}
		p.currentRow = n
		p.rowsProcessed++
		return n, true, nil
	}

	if !p.indicesBuilt {
		if err := p.buildAuxIndices(); err != nil {
			return 0, false, err
		}
		p.indicesBuilt = true
	}

	keys := make([]interface{}, len(p.keyTokens))
	for i, t := range p.keyTokens {
		cell, err := p.entry.PtrByToken(t)
		if err != nil {
			return 0, false, err
		}
		keys[i] = cell.Get()
	}

	missed := false
	for _, aux := range p.auxs {
		foundRow, ok, err := aux.idx.FirstEntry(keys...)
		if err != nil {
			return 0, false, err
		}
		if !ok {
			missed = true
			p.stats.Count("join.miss", 1, 1)
			continue
		}
		p.stats.Count("join.hit", 1, 1)
		if _, ok, err := aux.proc.LoadRow(foundRow); err != nil {
			return 0, false, err
		} else if !ok {
			missed = true
		}
	}
	if missed {
		p.entry.SetValid(false)
	}

	p.currentRow = n
	p.rowsProcessed++
	return row, true, nil
}

// buildAuxIndices eagerly builds one Index per auxiliary over the join-key
// fields, by walking every row the auxiliary exposes and reading its
// join-key values off its own Entry. Because every Processor — including a
// ChainProcessor — exposes a uniform global row numbering through
// LoadRow/RowCount, this loop needs no special case for a chain auxiliary:
// it contributes all of its inners' row numbers sequentially for free.
func (p *JoinProcessor) buildAuxIndices() error {
	for _, aux := range p.auxs {
		kinds := make([]schema.Kind, len(p.keys))
		tokens := make([]Token, len(p.keys))
		for i, k := range p.keys {
			name := k
			if aux.name != "" {
				name = aux.name + "." + k
			}
			t, err := p.entry.GetToken(name)
			if err != nil {
				return err
			}
			tokens[i] = t
			kind, err := p.entry.Kind(name)
			if err != nil {
				return err
			}
			kinds[i] = kind
		}

		builder, err := index.NewBuilder(kinds, p.opts)
		if err != nil {
			return err
		}

		rowCount, err := aux.proc.RowCount()
		if err != nil {
			return err
		}
		for r := uint64(0); r < rowCount; r++ {
			if _, ok, err := aux.proc.LoadRow(r); err != nil {
				return err
			} else if !ok {
				break
			}
			keys := make([]interface{}, len(tokens))
			for i, t := range tokens {
				cell, err := p.entry.PtrByToken(t)
				if err != nil {
					return err
				}
				keys[i] = cell.Get()
			}
			if err := builder.Add(r, keys); err != nil {
				return err
			}
		}
		aux.idx = builder.Freeze()
		p.logger.Debugf("join[%s]: built index for auxiliary %q, %d rows", p.name, aux.name, aux.idx.Len())
	}
	return nil
}
