// Package sequence issues the strictly increasing ids the book consumes
// for orders and executions. One Sequencer per id space; ids are never
// reused for the lifetime of the process.
package sequence

// Sequencer is deliberately not atomic: ids are only drawn on the
// book's single writer goroutine, and WAL replay must reproduce the
// exact same assignments it made the first time.
type Sequencer struct {
	last uint64
}

// New returns a sequencer whose next id is start+1.
func New(start uint64) *Sequencer {
	return &Sequencer{last: start}
}

func (s *Sequencer) Next() uint64 {
	s.last++
	return s.last
}

// Current returns the last issued id.
func (s *Sequencer) Current() uint64 {
	return s.last
}
