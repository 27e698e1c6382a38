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

// Package sites classifies and counts aligned nucleotide sites directly on
// the packed 4-bit encoding (16 bases per uint64), without expanding to one
// byte per base.
//
// A site in a single sequence is exactly one of gap (code 0), unambiguous
// (one code bit set), or ambiguous (2+ bits set).  A site in an aligned pair
// is deletion-eligible if either sequence has a gap or ambiguity there
// ("pairwise deletion"); every other site is conserved or mutated, and every
// mutated site is a transition or a transversion.  Per-chunk classification
// is pure branch-free bit manipulation built on the nibbles package; the
// sequence-level functions aggregate chunk results, correct the final
// partial chunk for padding, and optionally shard the work across CPUs.
//
// The chunk-level functions are total, and there is no invalid input at
// this layer: all 16 nibble values are meaningful codes (a gap plus the 15
// IUPAC base sets).
package sites
