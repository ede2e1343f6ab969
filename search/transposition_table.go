package search

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash"
	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
)

const (
	TTExact = 0x01
	TTLower = 0x02
	TTUpper = 0x03
)

// rough size of an entry including its key, for sizing only.
const entrySize = 64

const (
	MinSizePowerOf2 = 10
	MaxSizePowerOf2 = 22
)

// TableEntry is a stored search result. Scores are kept from the point of
// view of the player on turn at the stored node, with win scores expressed
// as distance from that node, so an entry can be reused at any ply and by
// either side's search.
type TableEntry struct {
	key       string
	score     int32
	remaining int16
	flag      uint8
	// table generation the entry was stored in
	gen uint32
}

func (t TableEntry) valid(gen uint32) bool {
	// a table flag is 1, 2, or 3.
	return t.flag != 0 && t.gen == gen
}

func (t TableEntry) Score() int {
	return int(t.score)
}

func (t TableEntry) Flag() uint8 {
	return t.flag
}

// Stats are the transposition table counters.
type Stats struct {
	Created    uint64
	Lookups    uint64
	Hits       uint64
	Collisions uint64
}

// TranspositionTable is a fixed-size table of search results shared by all
// search goroutines. Every access goes through one mutex. A slot holds a
// single entry and is overwritten on store; the full key is kept so a slot
// collision is a miss, never a wrong answer. Entries from an older
// generation count as empty, so Reset does not touch the slots.
type TranspositionTable struct {
	sync.Mutex
	table        []TableEntry
	sizePowerOf2 int
	sizeMask     uint64
	generation   uint32

	// board configuration the entries belong to
	dim       int
	winLength int

	created atomic.Uint64
	lookups atomic.Uint64
	hits    atomic.Uint64
	// slot taken by a different key or a different remaining depth
	collisions atomic.Uint64
}

// NewTranspositionTable allocates a table with 2^sizePowerOf2 slots.
func NewTranspositionTable(sizePowerOf2 int) *TranspositionTable {
	if sizePowerOf2 < MinSizePowerOf2 {
		sizePowerOf2 = MinSizePowerOf2
	}
	if sizePowerOf2 > MaxSizePowerOf2 {
		sizePowerOf2 = MaxSizePowerOf2
	}
	numElems := 1 << sizePowerOf2
	return &TranspositionTable{
		table:        make([]TableEntry, numElems),
		sizePowerOf2: sizePowerOf2,
		sizeMask:     uint64(numElems - 1),
		generation:   1,
	}
}

// SizeForMemory returns the table size (as a power of 2) that uses about
// fractionOfMemory of the machine's memory.
func SizeForMemory(fractionOfMemory float64) int {
	totalMem := memory.TotalMemory()
	desiredNElems := fractionOfMemory * (float64(totalMem) / float64(entrySize))
	if desiredNElems < 1 {
		return MinSizePowerOf2
	}
	p := int(math.Log2(desiredNElems))
	if p < MinSizePowerOf2 {
		p = MinSizePowerOf2
	}
	if p > MaxSizePowerOf2 {
		p = MaxSizePowerOf2
	}
	log.Debug().
		Float64("desired-num-elems", desiredNElems).
		Int("size-power-of-2", p).
		Uint64("total-system-memory-bytes", totalMem).
		Msg("transposition-table-size")
	return p
}

func (t *TranspositionTable) slot(key string, remaining int) uint64 {
	return (xxhash.Sum64String(key) + uint64(remaining)*0x9e3779b97f4a7c15) & t.sizeMask
}

func (t *TranspositionTable) lookup(key string, remaining int) (TableEntry, bool) {
	t.lookups.Add(1)
	idx := t.slot(key, remaining)
	t.Lock()
	entry := t.table[idx]
	gen := t.generation
	t.Unlock()
	if !entry.valid(gen) {
		return TableEntry{}, false
	}
	if entry.key != key || int(entry.remaining) != remaining {
		t.collisions.Add(1)
		return TableEntry{}, false
	}
	t.hits.Add(1)
	return entry, true
}

func (t *TranspositionTable) store(key string, remaining int, score int, flag uint8) {
	idx := t.slot(key, remaining)
	entry := TableEntry{
		key:       key,
		score:     int32(score),
		remaining: int16(remaining),
		flag:      flag,
	}
	t.Lock()
	entry.gen = t.generation
	// just overwrite whatever is there.
	t.table[idx] = entry
	t.Unlock()
	t.created.Add(1)
}

// Reset invalidates all entries and clears the counters. It only bumps the
// generation; the slots are wiped when the generation wraps around.
func (t *TranspositionTable) Reset() {
	t.Lock()
	defer t.Unlock()
	t.generation++
	if t.generation == 0 {
		clear(t.table)
		t.generation = 1
	}
	t.created.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
	t.collisions.Store(0)
}

// Bind ties the table to a board configuration. If the table holds entries
// for a different configuration it is reset first. It returns true if a
// reset happened.
func (t *TranspositionTable) Bind(dim, winLength int) bool {
	t.Lock()
	same := t.dim == dim && t.winLength == winLength
	t.dim = dim
	t.winLength = winLength
	t.Unlock()
	if same {
		return false
	}
	t.Reset()
	log.Debug().Int("dim", dim).Int("win-length", winLength).Msg("transposition-table-rebound")
	return true
}

// Matches returns true if the table is bound to this board configuration.
func (t *TranspositionTable) Matches(dim, winLength int) bool {
	t.Lock()
	defer t.Unlock()
	return t.dim == dim && t.winLength == winLength
}

func (t *TranspositionTable) Size() int {
	return len(t.table)
}

func (t *TranspositionTable) Stats() Stats {
	return Stats{
		Created:    t.created.Load(),
		Lookups:    t.lookups.Load(),
		Hits:       t.hits.Load(),
		Collisions: t.collisions.Load(),
	}
}
