package graph

// queryRecord captures one search for the adaptation engine.
//
// Paths and results reference nodes by identifier, not by slot: slots are
// recycled through the free list, so a slot captured at search time could
// alias a different node by the time Learn runs.
type queryRecord struct {
	query   []float32
	path    []string
	results []string
	quality float64
}

// historyRing is a bounded FIFO log of recent queries.
// The oldest record is evicted first when the bound is exceeded.
type historyRing struct {
	records []queryRecord
	head    int
	size    int
}

func newHistoryRing(capacity int) *historyRing {
	return &historyRing{
		records: make([]queryRecord, capacity),
	}
}

func (r *historyRing) push(rec queryRecord) {
	if len(r.records) == 0 {
		return
	}

	if r.size < len(r.records) {
		r.records[(r.head+r.size)%len(r.records)] = rec
		r.size++
		return
	}

	// Full: overwrite the oldest record.
	r.records[r.head] = rec
	r.head = (r.head + 1) % len(r.records)
}

func (r *historyRing) len() int {
	return r.size
}

// snapshot returns a copy of all records, oldest first.
// Learn iterates the copy so that searches issued mid-pass cannot mutate it.
func (r *historyRing) snapshot() []queryRecord {
	out := make([]queryRecord, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.records[(r.head+i)%len(r.records)]
	}
	return out
}

func (r *historyRing) reset() {
	for i := range r.records {
		r.records[i] = queryRecord{}
	}
	r.head = 0
	r.size = 0
}
