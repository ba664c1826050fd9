package bot

import "solana-copy-bot/internal/domain"

// historyRing is a fixed-capacity ring of classified transactions.
// Oldest entries are evicted when the ring is full. Not safe for
// concurrent use; the manager guards it with its mutex.
type historyRing struct {
	buf  []*domain.ClassifiedTransaction
	head int // next write position
	size int
}

func newHistoryRing(capacity int) *historyRing {
	if capacity <= 0 {
		capacity = 1
	}
	return &historyRing{buf: make([]*domain.ClassifiedTransaction, capacity)}
}

func (r *historyRing) Append(tx *domain.ClassifiedTransaction) {
	r.buf[r.head] = tx
	r.head = (r.head + 1) % len(r.buf)
	if r.size < len(r.buf) {
		r.size++
	}
}

func (r *historyRing) Len() int { return r.size }

// Slice returns up to limit entries in chronological order, with offset
// counting back from the newest entry. offset 0 ends the window at the
// newest entry; a window falling entirely before the oldest retained
// entry is empty.
func (r *historyRing) Slice(limit, offset int) []*domain.ClassifiedTransaction {
	if limit <= 0 || offset < 0 || offset >= r.size {
		return []*domain.ClassifiedTransaction{}
	}
	end := r.size - offset
	start := end - limit
	if start < 0 {
		start = 0
	}

	out := make([]*domain.ClassifiedTransaction, 0, end-start)
	oldest := r.head - r.size
	for i := start; i < end; i++ {
		idx := ((oldest + i) % len(r.buf) + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}
