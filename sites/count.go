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
package sites

import (
	"github.com/grailbio/sitecount/nibbles"
)

// Single-chunk counters.  CountGap(x) + CountAmbiguous(x) +
// CountUnambiguous(x) == 16 for every x, since the three categories
// partition the nibble values.

// CountGap returns the number of gap sites in the chunk.
func CountGap(w uint64) int {
	return nibbles.ZeroCount(w)
}

// CountAmbiguous returns the number of sites in the chunk holding an IUPAC
// ambiguity code.
func CountAmbiguous(w uint64) int {
	return nibbles.NonzeroCount(AmbiguousMask(w))
}

// CountUnambiguous returns the number of sites in the chunk holding a plain
// A/C/G/T code.
func CountUnambiguous(w uint64) int {
	return nibbles.NonzeroCount(UnambiguousMask(w))
}

// Pair counters.  CountConserved(a,b) + CountMutated(a,b) +
// CountPairDeletion(a,b) == 16 for every pair; this is the identity
// everything downstream (distance estimators in particular) depends on.
// Note that CountPairGap + CountPairAmbiguous can exceed CountPairDeletion:
// a site gapped in one operand and ambiguous in the other lands in both of
// the former but only once in the latter.

// CountPairGap returns the number of sites gapped in either operand.
func CountPairGap(a, b uint64) int {
	return nibbles.NonzeroCount(PairGapMask(a, b))
}

// CountPairAmbiguous returns the number of sites carrying an ambiguity code
// in either operand.
func CountPairAmbiguous(a, b uint64) int {
	return nibbles.NonzeroCount(PairAmbiguousMask(a, b))
}

// CountPairDeletion returns the number of sites excluded from comparison by
// the pairwise-deletion policy.
func CountPairDeletion(a, b uint64) int {
	return nibbles.NonzeroCount(PairDeletionMask(a, b))
}

// CountConserved returns the number of non-deleted sites with equal codes.
func CountConserved(a, b uint64) int {
	return nibbles.NonzeroCount(ConservedMask(a, b))
}

// CountMutated returns the number of non-deleted sites with differing codes.
func CountMutated(a, b uint64) int {
	return nibbles.NonzeroCount(MutatedMask(a, b))
}

// SeqCounts holds per-category site counts for a single chunk or a single
// sequence.  The fields always sum to the number of sites counted.
type SeqCounts struct {
	Gap         int64
	Ambiguous   int64
	Unambiguous int64
}

// Add accumulates d into c.  Chunk counts combine by plain summation, so
// callers sharding their own loops can reduce partial results in any order.
func (c *SeqCounts) Add(d SeqCounts) {
	c.Gap += d.Gap
	c.Ambiguous += d.Ambiguous
	c.Unambiguous += d.Unambiguous
}

// PairCounts holds per-category site counts for an aligned chunk pair or
// sequence pair.  Conserved + Mutated + Deletion always equals the number
// of sites counted, and Transitions + Transversions always equals Mutated.
// Gap and Ambiguous count "either operand" occurrences, so their sum is at
// least Deletion (see CountPairDeletion).
type PairCounts struct {
	Conserved     int64
	Mutated       int64
	Transitions   int64
	Transversions int64
	Gap           int64
	Ambiguous     int64
	Deletion      int64
}

// Add accumulates d into c.
func (c *PairCounts) Add(d PairCounts) {
	c.Conserved += d.Conserved
	c.Mutated += d.Mutated
	c.Transitions += d.Transitions
	c.Transversions += d.Transversions
	c.Gap += d.Gap
	c.Ambiguous += d.Ambiguous
	c.Deletion += d.Deletion
}

// CountChunk classifies all 16 sites of one chunk, computing the shared
// popcount word once.  Equivalent to calling the three single-chunk
// counters separately.
func CountChunk(w uint64) SeqCounts {
	e := nibbles.Popcounts(w)
	amb := nibbles.MatchMask(e, pop2) | nibbles.MatchMask(e, pop3) | nibbles.MatchMask(e, pop4)
	return SeqCounts{
		Gap:         int64(nibbles.ZeroCount(w)),
		Ambiguous:   int64(nibbles.NonzeroCount(amb)),
		Unambiguous: int64(nibbles.NonzeroCount(nibbles.MatchMask(e, pop1))),
	}
}

// CountChunkPair classifies all 16 sites of one aligned chunk pair, sharing
// the mask intermediates across categories.  Equivalent to calling the
// individual pair counters separately.
func CountChunkPair(a, b uint64) PairCounts {
	gap := GapMask(a) | GapMask(b)
	amb := AmbiguousMask(a) | AmbiguousMask(b)
	del := gap | amb
	keep := ^del
	d := (a & keep) ^ (b & keep)
	conserved := nibbles.MatchMask(d, 0) & keep
	ti := nibbles.MatchMask(d, transitionAG) | nibbles.MatchMask(d, transitionCT)

	mutated := int64(nibbles.NonzeroCount(^conserved & keep))
	transitions := int64(nibbles.NonzeroCount(ti))
	return PairCounts{
		Conserved:     int64(nibbles.NonzeroCount(conserved)),
		Mutated:       mutated,
		Transitions:   transitions,
		Transversions: mutated - transitions,
		Gap:           int64(nibbles.NonzeroCount(gap)),
		Ambiguous:     int64(nibbles.NonzeroCount(amb)),
		Deletion:      int64(nibbles.NonzeroCount(del)),
	}
}
