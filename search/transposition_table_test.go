package search

import (
	"fmt"
	"testing"

	"github.com/matryer/is"
)

func TestTableStoreAndLookup(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(MinSizePowerOf2)
	is.Equal(tt.Size(), 1<<MinSizePowerOf2)

	key := "100020000/1"
	_, ok := tt.lookup(key, 3)
	is.True(!ok)

	tt.store(key, 3, 42, TTLower)
	e, ok := tt.lookup(key, 3)
	is.True(ok)
	is.Equal(e.Score(), 42)
	is.Equal(e.Flag(), uint8(TTLower))

	// a different remaining depth is a different result
	_, ok = tt.lookup(key, 2)
	is.True(!ok)
	_, ok = tt.lookup("100020000/2", 3)
	is.True(!ok)

	st := tt.Stats()
	is.Equal(st.Created, uint64(1))
	is.Equal(st.Lookups, uint64(4))
	is.Equal(st.Hits, uint64(1))
}

func TestTableCollisionIsAMiss(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(MinSizePowerOf2)
	// find two keys that share a slot
	first := "k0"
	var second string
	for i := 1; ; i++ {
		k := fmt.Sprintf("k%d", i)
		if tt.slot(k, 1) == tt.slot(first, 1) {
			second = k
			break
		}
	}
	tt.store(first, 1, 7, TTExact)
	_, ok := tt.lookup(second, 1)
	is.True(!ok)
	is.Equal(tt.Stats().Collisions, uint64(1))

	tt.store(second, 1, 9, TTExact)
	_, ok = tt.lookup(first, 1)
	is.True(!ok)
	e, ok := tt.lookup(second, 1)
	is.True(ok)
	is.Equal(e.Score(), 9)
}

func TestTableBindResets(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(MinSizePowerOf2)
	is.True(tt.Bind(3, 3))
	tt.store("000000000/1", 2, 1, TTExact)
	is.True(!tt.Bind(3, 3))
	_, ok := tt.lookup("000000000/1", 2)
	is.True(ok)

	is.True(tt.Bind(4, 3))
	is.True(tt.Matches(4, 3))
	is.True(!tt.Matches(3, 3))
	_, ok = tt.lookup("000000000/1", 2)
	is.True(!ok)
}

func TestTableResetInvalidatesEntries(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(MinSizePowerOf2)
	key := "120000000/1"
	tt.store(key, 4, 11, TTExact)
	tt.Reset()
	_, ok := tt.lookup(key, 4)
	is.True(!ok)
	is.Equal(tt.Stats().Collisions, uint64(0))

	tt.store(key, 4, 12, TTExact)
	e, ok := tt.lookup(key, 4)
	is.True(ok)
	is.Equal(e.Score(), 12)

	// an entry stored in generation 1 must not come back after wrapping
	tt.Reset()
	tt.generation = 1
	tt.store(key, 4, 13, TTExact)
	tt.generation = ^uint32(0)
	tt.Reset()
	is.Equal(tt.generation, uint32(1))
	_, ok = tt.lookup(key, 4)
	is.True(!ok)
}

func TestTableEntryNormalization(t *testing.T) {
	is := is.New(t)
	// a win for the maximizer two plies below a min node at ply 3
	value := WinBase - 5
	score, flag := toTableEntry(value, TTLower, false, 3)
	is.Equal(score, -(WinBase - 2))
	is.Equal(flag, uint8(TTUpper))

	// read back at ply 1 by a search where the same player is on turn
	// and is now the maximizer
	got, gotFlag := fromTableEntry(TableEntry{score: int32(score), flag: flag}, true, 1)
	is.Equal(got, -(WinBase - 3))
	is.Equal(gotFlag, uint8(TTUpper))

	// heuristic scores are left alone
	score, _ = toTableEntry(1234, TTExact, true, 4)
	is.Equal(score, 1234)
}

func TestSizeForMemory(t *testing.T) {
	is := is.New(t)
	p := SizeForMemory(0.01)
	is.True(p >= MinSizePowerOf2 && p <= MaxSizePowerOf2)
	is.Equal(SizeForMemory(0), MinSizePowerOf2)
}
