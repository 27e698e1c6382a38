// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package sites_test

import (
	"math/bits"
	"math/rand"
	"testing"

	"github.com/grailbio/sitecount/nibbles"
	"github.com/grailbio/sitecount/sites"
)

// The slow reference functions below classify one site at a time, the
// obvious way, and the tests check that the branch-free versions agree.

// nibbleAt returns the 4-bit code at the given site of a packed chunk.
func nibbleAt(w uint64, pos int) byte {
	return byte(w>>(uint(pos)*4)) & 15
}

func isDeletedSlow(c byte) bool {
	return bits.OnesCount8(c) != 1
}

func seqCountsSlow(w uint64) sites.SeqCounts {
	var c sites.SeqCounts
	for pos := 0; pos != nibbles.PerWord; pos++ {
		switch bits.OnesCount8(nibbleAt(w, pos)) {
		case 0:
			c.Gap++
		case 1:
			c.Unambiguous++
		default:
			c.Ambiguous++
		}
	}
	return c
}

func pairCountsSlow(a, b uint64) sites.PairCounts {
	var c sites.PairCounts
	for pos := 0; pos != nibbles.PerWord; pos++ {
		x := nibbleAt(a, pos)
		y := nibbleAt(b, pos)
		if x == 0 || y == 0 {
			c.Gap++
		}
		if bits.OnesCount8(x) > 1 || bits.OnesCount8(y) > 1 {
			c.Ambiguous++
		}
		if isDeletedSlow(x) || isDeletedSlow(y) {
			c.Deletion++
			continue
		}
		if x == y {
			c.Conserved++
			continue
		}
		c.Mutated++
		if x^y == sites.CodeA^sites.CodeG || x^y == sites.CodeC^sites.CodeT {
			c.Transitions++
		} else {
			c.Transversions++
		}
	}
	return c
}

// randChunk mixes arbitrary words with all-plain-base words; purely uniform
// nibbles would make conserved and transition sites too rare to exercise.
func randChunk() uint64 {
	w := rand.Uint64()
	switch rand.Intn(3) {
	case 0:
		w &= rand.Uint64()
	case 1:
		w = 0
		for pos := 0; pos != nibbles.PerWord; pos++ {
			w |= uint64(1) << (uint(rand.Intn(4)) + uint(pos)*4)
		}
	}
	return w
}

// randPartner returns a copy of a with a handful of sites substituted.
func randPartner(a uint64) uint64 {
	b := a
	for n := rand.Intn(6); n != 0; n-- {
		b ^= uint64(rand.Intn(15)+1) << (uint(rand.Intn(nibbles.PerWord)) * 4)
	}
	return b
}

func TestChunkCountsFixed(t *testing.T) {
	for _, tc := range []struct {
		w                           uint64
		gap, ambiguous, unambiguous int
	}{
		{0, 16, 0, 0},
		{^uint64(0), 0, 16, 0},
		{0x8421, 12, 0, 4},
		// A C G T gap, three times over, then R.
		{0x5084210842108421, 3, 1, 12},
	} {
		if got := sites.CountGap(tc.w); got != tc.gap {
			t.Fatalf("CountGap(%#x): got %d, want %d", tc.w, got, tc.gap)
		}
		if got := sites.CountAmbiguous(tc.w); got != tc.ambiguous {
			t.Fatalf("CountAmbiguous(%#x): got %d, want %d", tc.w, got, tc.ambiguous)
		}
		if got := sites.CountUnambiguous(tc.w); got != tc.unambiguous {
			t.Fatalf("CountUnambiguous(%#x): got %d, want %d", tc.w, got, tc.unambiguous)
		}
	}
}

func TestChunkCountsRandom(t *testing.T) {
	nIter := 200
	for iter := 0; iter < nIter; iter++ {
		w := randChunk()
		want := seqCountsSlow(w)
		if int64(sites.CountGap(w)) != want.Gap {
			t.Fatal("Mismatched CountGap result.")
		}
		if int64(sites.CountAmbiguous(w)) != want.Ambiguous {
			t.Fatal("Mismatched CountAmbiguous result.")
		}
		if int64(sites.CountUnambiguous(w)) != want.Unambiguous {
			t.Fatal("Mismatched CountUnambiguous result.")
		}
		if sites.CountChunk(w) != want {
			t.Fatal("Mismatched CountChunk result.")
		}
		if sites.CountGap(w)+sites.CountAmbiguous(w)+sites.CountUnambiguous(w) != nibbles.PerWord {
			t.Fatal("Chunk counts must partition the 16 sites.")
		}
	}
}

func checkNibbleMask(t *testing.T, name string, m uint64) {
	t.Helper()
	for pos := 0; pos != nibbles.PerWord; pos++ {
		if c := nibbleAt(m, pos); c != 0 && c != 15 {
			t.Fatalf("%s produced a ragged mask: %#x", name, m)
		}
	}
}

func TestMaskAlignment(t *testing.T) {
	nIter := 200
	for iter := 0; iter < nIter; iter++ {
		a := randChunk()
		b := randPartner(a)
		checkNibbleMask(t, "GapMask", sites.GapMask(a))
		checkNibbleMask(t, "AmbiguousMask", sites.AmbiguousMask(a))
		checkNibbleMask(t, "UnambiguousMask", sites.UnambiguousMask(a))
		checkNibbleMask(t, "ConservedMask", sites.ConservedMask(a, b))
		checkNibbleMask(t, "MutatedMask", sites.MutatedMask(a, b))
		checkNibbleMask(t, "TransitionMask", sites.TransitionMask(a, b))
		if sites.GapMask(a)&sites.AmbiguousMask(a) != 0 {
			t.Fatal("Gap and ambiguity masks must be disjoint.")
		}
		if sites.DeletionMask(a) != sites.GapMask(a)|sites.AmbiguousMask(a) {
			t.Fatal("DeletionMask must be the union of the gap and ambiguity masks.")
		}
		if sites.UnambiguousMask(a) != ^sites.DeletionMask(a) {
			t.Fatal("Every site must be exactly one of gap, ambiguous, unambiguous.")
		}
		conserved := sites.ConservedMask(a, b)
		mutated := sites.MutatedMask(a, b)
		if conserved&mutated != 0 || conserved|mutated != ^sites.PairDeletionMask(a, b) {
			t.Fatal("Conserved and mutated masks must partition the kept sites.")
		}
	}
}

func TestPairCountsFixed(t *testing.T) {
	// Site 0 holds A in x and G in y; everything else matches.
	x := uint64(0x5084210842108421)
	y := uint64(0x5084210842108424)
	if got := sites.CountPairGap(x, y); got != 3 {
		t.Fatalf("CountPairGap: got %d, want 3", got)
	}
	if got := sites.CountPairAmbiguous(x, y); got != 1 {
		t.Fatalf("CountPairAmbiguous: got %d, want 1", got)
	}
	if got := sites.CountPairDeletion(x, y); got != 4 {
		t.Fatalf("CountPairDeletion: got %d, want 4", got)
	}
	if got := sites.CountConserved(x, y); got != 11 {
		t.Fatalf("CountConserved: got %d, want 11", got)
	}
	if got := sites.CountMutated(x, y); got != 1 {
		t.Fatalf("CountMutated: got %d, want 1", got)
	}

	// A site gapped in one sequence and ambiguous in the other is excluded
	// once, not twice.
	a := uint64(0x1111111111111110)
	b := uint64(0x111111111111111f)
	if got := sites.CountPairGap(a, b); got != 1 {
		t.Fatalf("CountPairGap: got %d, want 1", got)
	}
	if got := sites.CountPairAmbiguous(a, b); got != 1 {
		t.Fatalf("CountPairAmbiguous: got %d, want 1", got)
	}
	if got := sites.CountPairDeletion(a, b); got != 1 {
		t.Fatalf("CountPairDeletion: got %d, want 1", got)
	}
	if got := sites.CountConserved(a, b); got != 15 {
		t.Fatalf("CountConserved: got %d, want 15", got)
	}

	// Two all-gap chunks share no comparable site.
	if got := sites.CountPairDeletion(0, 0); got != nibbles.PerWord {
		t.Fatalf("CountPairDeletion(0, 0): got %d, want 16", got)
	}
	if sites.CountConserved(0, 0) != 0 || sites.CountMutated(0, 0) != 0 {
		t.Fatal("All-gap chunks must have no conserved or mutated sites.")
	}
}

func TestPairCountsRandom(t *testing.T) {
	nIter := 200
	for iter := 0; iter < nIter; iter++ {
		a := randChunk()
		b := randPartner(a)
		want := pairCountsSlow(a, b)
		if int64(sites.CountPairGap(a, b)) != want.Gap {
			t.Fatal("Mismatched CountPairGap result.")
		}
		if int64(sites.CountPairAmbiguous(a, b)) != want.Ambiguous {
			t.Fatal("Mismatched CountPairAmbiguous result.")
		}
		if int64(sites.CountPairDeletion(a, b)) != want.Deletion {
			t.Fatal("Mismatched CountPairDeletion result.")
		}
		if int64(sites.CountConserved(a, b)) != want.Conserved {
			t.Fatal("Mismatched CountConserved result.")
		}
		if int64(sites.CountMutated(a, b)) != want.Mutated {
			t.Fatal("Mismatched CountMutated result.")
		}
		if sites.CountChunkPair(a, b) != want {
			t.Fatal("Mismatched CountChunkPair result.")
		}
		if sites.CountConserved(a, b)+sites.CountMutated(a, b)+sites.CountPairDeletion(a, b) != nibbles.PerWord {
			t.Fatal("Conserved + mutated + deletion must cover the 16 sites.")
		}
		if sites.CountPairGap(a, b)+sites.CountPairAmbiguous(a, b) < sites.CountPairDeletion(a, b) {
			t.Fatal("Gap and ambiguity counts cannot sum below the deletion count.")
		}
	}
}

func TestPairCountsSelf(t *testing.T) {
	nIter := 200
	for iter := 0; iter < nIter; iter++ {
		w := randChunk()
		if sites.CountMutated(w, w) != 0 {
			t.Fatal("A chunk cannot be mutated relative to itself.")
		}
		if sites.CountConserved(w, w) != sites.CountUnambiguous(w) {
			t.Fatal("Self-conserved sites must be exactly the unambiguous ones.")
		}
		if sites.CountPairGap(w, w) != sites.CountGap(w) {
			t.Fatal("Mismatched self-pair gap count.")
		}
		if sites.CountPairDeletion(w, w) != sites.CountGap(w)+sites.CountAmbiguous(w) {
			t.Fatal("Mismatched self-pair deletion count.")
		}
	}
}

func TestCountsAdd(t *testing.T) {
	c := sites.SeqCounts{Gap: 1, Ambiguous: 2, Unambiguous: 13}
	c.Add(sites.SeqCounts{Gap: 4, Ambiguous: 5, Unambiguous: 7})
	if c != (sites.SeqCounts{Gap: 5, Ambiguous: 7, Unambiguous: 20}) {
		t.Fatal("Mismatched SeqCounts.Add result.")
	}
	p := sites.PairCounts{Conserved: 9, Mutated: 3, Transitions: 2, Transversions: 1, Gap: 2, Ambiguous: 3, Deletion: 4}
	p.Add(sites.PairCounts{Conserved: 1, Mutated: 1, Transitions: 1, Gap: 1, Deletion: 2})
	want := sites.PairCounts{Conserved: 10, Mutated: 4, Transitions: 3, Transversions: 1, Gap: 3, Ambiguous: 3, Deletion: 6}
	if p != want {
		t.Fatal("Mismatched PairCounts.Add result.")
	}
}

var benchSinkSeqCounts sites.SeqCounts

var benchSinkPairCounts sites.PairCounts

func BenchmarkCountChunk(b *testing.B) {
	words := make([]uint64, 4096)
	for i := range words {
		words[i] = rand.Uint64()
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var c sites.SeqCounts
		for _, w := range words {
			c.Add(sites.CountChunk(w))
		}
		benchSinkSeqCounts = c
	}
}

func BenchmarkCountChunkPair(b *testing.B) {
	x := make([]uint64, 4096)
	y := make([]uint64, 4096)
	for i := range x {
		x[i] = rand.Uint64()
		y[i] = randPartner(x[i])
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var c sites.PairCounts
		for j, w := range x {
			c.Add(sites.CountChunkPair(w, y[j]))
		}
		benchSinkPairCounts = c
	}
}
