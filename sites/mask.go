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

// Broadcast patterns matching per-nibble popcount values; a nibble of
// Popcounts(w) equal to 1 marks an unambiguous base, 2..4 mark ambiguity
// codes.
const (
	pop1 = 0x1111111111111111
	pop2 = 0x2222222222222222
	pop3 = 0x3333333333333333
	pop4 = 0x4444444444444444
)

// GapMask returns the mask selecting the gap (all-zero) nibbles of w.
func GapMask(w uint64) uint64 {
	return nibbles.MatchMask(w, 0)
}

// AmbiguousMask returns the mask selecting the nibbles of w with 2 or more
// set bits, i.e. the IUPAC ambiguity codes.  Gaps (popcount 0) and
// unambiguous bases (popcount 1) are excluded by construction.
func AmbiguousMask(w uint64) uint64 {
	e := nibbles.Popcounts(w)
	return nibbles.MatchMask(e, pop2) | nibbles.MatchMask(e, pop3) | nibbles.MatchMask(e, pop4)
}

// UnambiguousMask returns the mask selecting the nibbles of w with exactly
// one set bit, i.e. the plain A/C/G/T codes.
func UnambiguousMask(w uint64) uint64 {
	return nibbles.MatchMask(nibbles.Popcounts(w), pop1)
}

// DeletionMask returns the mask selecting the nibbles of w that make a site
// deletion-eligible under the pairwise-deletion policy: gaps and ambiguity
// codes.
func DeletionMask(w uint64) uint64 {
	return GapMask(w) | AmbiguousMask(w)
}

// PairGapMask returns the mask selecting sites where either operand has a
// gap.  Per-chunk masks must be unioned here, never the raw words: a nibble
// of a|b is zero only where both operands are gaps, which is the
// intersection, not the union.
func PairGapMask(a, b uint64) uint64 {
	return GapMask(a) | GapMask(b)
}

// PairAmbiguousMask returns the mask selecting sites where either operand
// carries an ambiguity code.
func PairAmbiguousMask(a, b uint64) uint64 {
	return AmbiguousMask(a) | AmbiguousMask(b)
}

// PairDeletionMask returns the mask selecting sites excluded from pair
// comparison: gap or ambiguity in either operand.
func PairDeletionMask(a, b uint64) uint64 {
	return DeletionMask(a) | DeletionMask(b)
}

// ConservedMask returns the mask selecting sites that survive pairwise
// deletion and carry the same code in both operands.
//
// Both operands are ANDed with the complement of the deletion mask before
// the XOR: a deleted site has nibble 0 in both masked operands, which would
// otherwise be indistinguishable from true equality.
func ConservedMask(a, b uint64) uint64 {
	keep := ^PairDeletionMask(a, b)
	d := (a & keep) ^ (b & keep)
	return nibbles.MatchMask(d, 0) & keep
}

// MutatedMask returns the mask selecting sites that survive pairwise
// deletion and carry different codes in the two operands.
func MutatedMask(a, b uint64) uint64 {
	keep := ^PairDeletionMask(a, b)
	d := (a & keep) ^ (b & keep)
	return ^nibbles.MatchMask(d, 0) & keep
}
