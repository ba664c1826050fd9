package bot

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-copy-bot/internal/domain"
)

func entry(i int) *domain.ClassifiedTransaction {
	return &domain.ClassifiedTransaction{Signature: fmt.Sprintf("sig-%d", i)}
}

func sigs(txs []*domain.ClassifiedTransaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.Signature
	}
	return out
}

func TestHistoryRing_AppendAndLen(t *testing.T) {
	r := newHistoryRing(3)
	assert.Equal(t, 0, r.Len())

	r.Append(entry(0))
	r.Append(entry(1))
	assert.Equal(t, 2, r.Len())

	r.Append(entry(2))
	r.Append(entry(3))
	assert.Equal(t, 3, r.Len(), "capacity bounds retention")
}

func TestHistoryRing_EvictsOldest(t *testing.T) {
	r := newHistoryRing(3)
	for i := 0; i < 5; i++ {
		r.Append(entry(i))
	}

	got := r.Slice(10, 0)
	assert.Equal(t, []string{"sig-2", "sig-3", "sig-4"}, sigs(got))
}

func TestHistoryRing_SliceChronological(t *testing.T) {
	r := newHistoryRing(10)
	for i := 0; i < 6; i++ {
		r.Append(entry(i))
	}

	// offset 0 ends at the newest entry
	got := r.Slice(3, 0)
	assert.Equal(t, []string{"sig-3", "sig-4", "sig-5"}, sigs(got))

	// offset counts back from the newest
	got = r.Slice(3, 2)
	assert.Equal(t, []string{"sig-1", "sig-2", "sig-3"}, sigs(got))

	// window clipped at the oldest retained entry
	got = r.Slice(10, 2)
	assert.Equal(t, []string{"sig-0", "sig-1", "sig-2", "sig-3"}, sigs(got))
}

func TestHistoryRing_SliceOutOfRange(t *testing.T) {
	r := newHistoryRing(5)
	for i := 0; i < 3; i++ {
		r.Append(entry(i))
	}

	assert.Empty(t, r.Slice(10, 3), "offset past retained entries")
	assert.Empty(t, r.Slice(10, 100))
	assert.Empty(t, r.Slice(0, 0), "zero limit")
	assert.Empty(t, r.Slice(-1, 0))
	assert.Empty(t, r.Slice(10, -1))
}

func TestHistoryRing_SliceAfterWrap(t *testing.T) {
	r := newHistoryRing(4)
	for i := 0; i < 11; i++ {
		r.Append(entry(i))
	}

	require.Equal(t, 4, r.Len())
	got := r.Slice(2, 1)
	assert.Equal(t, []string{"sig-8", "sig-9"}, sigs(got))
}
