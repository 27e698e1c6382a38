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

// Transition detection works on the XOR of the deletion-masked operands.
// Every site surviving pairwise deletion holds a single-bit code, so the XOR
// of a mutated site is exactly the two-bit pattern of the substituted pair:
// CodeA^CodeG = 0x5 and CodeC^CodeT = 0xa are the transitions, while the
// four transversion substitutions produce 0x3, 0x6, 0x9, or 0xc.  Deleted
// and conserved sites XOR to zero and drop out on their own.
const (
	transitionAG = 0x5555555555555555
	transitionCT = 0xaaaaaaaaaaaaaaaa
)

// TransitionMask returns the mask selecting mutated sites whose substitution
// stays within a base class: A<->G (purines) or C<->T (pyrimidines).
// Deletion-eligible sites are excluded before classification.
func TransitionMask(a, b uint64) uint64 {
	keep := ^PairDeletionMask(a, b)
	d := (a & keep) ^ (b & keep)
	return nibbles.MatchMask(d, transitionAG) | nibbles.MatchMask(d, transitionCT)
}

// TransversionMask returns the mask selecting mutated sites whose
// substitution crosses base classes.
func TransversionMask(a, b uint64) uint64 {
	return MutatedMask(a, b) &^ TransitionMask(a, b)
}

// CountTransitions returns the number of transition sites in the pair.
// CountTransitions + CountTransversions == CountMutated, always.
func CountTransitions(a, b uint64) int {
	return nibbles.NonzeroCount(TransitionMask(a, b))
}

// CountTransversions returns the number of transversion sites in the pair.
func CountTransversions(a, b uint64) int {
	return nibbles.NonzeroCount(TransversionMask(a, b))
}
