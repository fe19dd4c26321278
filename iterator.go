package tupleproc

// EndSentinel is the CurrentRow value an exhausted Iterator reports, and
// the value End()'s iterator compares equal to.
const EndSentinel = ^uint64(0)

// Iterator is a forward iterator over any Processor. It loads row 0
// eagerly at construction, so a freshly built Iterator already holds the
// first row (or is already at EndSentinel, for an empty processor).
type Iterator struct {
	proc    Processor
	current uint64
	err     error
}

// NewIterator constructs an Iterator over proc and eagerly loads row 0.
func NewIterator(proc Processor) (*Iterator, error) {
	it := &Iterator{proc: proc}
	_, ok, err := proc.LoadRow(0)
	if err != nil {
		return nil, err
	}
	if !ok {
		it.current = EndSentinel
	}
	return it, nil
}

// Next advances to the following row. Calling Next once already at
// EndSentinel is a no-op.
func (it *Iterator) Next() error {
	if it.current == EndSentinel {
		return nil
	}
	_, ok, err := it.proc.LoadRow(it.current + 1)
	if err != nil {
		it.err = err
		return err
	}
	if !ok {
		it.current = EndSentinel
		return nil
	}
	it.current++
	return nil
}

// Done reports whether the iterator is exhausted.
func (it *Iterator) Done() bool {
	return it.current == EndSentinel
}

// Entry returns the processor's current Entry by reference.
func (it *Iterator) Entry() *Entry {
	return it.proc.Entry()
}

// CurrentRow returns the iterator's current row, or EndSentinel once
// exhausted.
func (it *Iterator) CurrentRow() uint64 {
	return it.current
}

// Equal reports whether it and other are at the same CurrentRow, mirroring
// the façade's operator== contract: two iterators over the same processor
// are equal iff their current rows match, and both compare equal to End()
// once exhausted.
func (it *Iterator) Equal(other *Iterator) bool {
	return it.current == other.current
}

// End returns a sentinel iterator for comparison against an exhausted
// Iterator, without itself loading any row.
func End() *Iterator {
	return &Iterator{current: EndSentinel}
}
