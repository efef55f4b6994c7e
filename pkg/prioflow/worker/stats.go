package worker

// Stats is one worker's operation record. Fields are written only by the
// owning worker goroutine and read by the coordinator strictly after that
// worker has been joined, so no synchronization is needed.
type Stats struct {
	// Ops counts successful channel operations.
	Ops uint64

	// BlockedTotalMS accumulates wall-clock time spent inside channel
	// operations, bracketing the whole acquire-lock-mutate sequence.
	BlockedTotalMS uint64

	// BlockedEvents counts operations whose measured duration was
	// non-zero.
	BlockedEvents uint64

	// MaxDepth is the largest occupancy this worker observed after its
	// own operations.
	MaxDepth int
}

// merge folds another worker's stats into an aggregate.
func (s *Stats) merge(other Stats) {
	s.Ops += other.Ops
	s.BlockedTotalMS += other.BlockedTotalMS
	s.BlockedEvents += other.BlockedEvents
	if other.MaxDepth > s.MaxDepth {
		s.MaxDepth = other.MaxDepth
	}
}
