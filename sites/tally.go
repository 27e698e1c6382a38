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
	"runtime"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/sitecount/nibbles"
)

// The chunk engine cannot tell a true gap from a padding nibble in the final
// word of a packed sequence, so the sequence-level functions below own that
// distinction: they force the padding nibbles to zero (callers are not
// required to keep them clean) and then subtract the pad width from the
// affected categories.  Padding never reaches any other category: a zeroed
// padding site is a gap in one-sequence terms and a pair-gap (hence
// deletion-eligible) in pair terms.

// lastWordMask selects the valid nibbles of the final word of a packed
// sequence with nSites sites.
func lastWordMask(nSites int) uint64 {
	keep := nSites & (nibbles.PerWord - 1)
	if keep == 0 {
		return ^uint64(0)
	}
	return (uint64(1) << (uint(keep) * nibbles.Bits)) - 1
}

// CountSeq classifies every site of a packed sequence.  chunks holds the
// packed codes, nSites the sequence's true length in sites; the content of
// the final word's padding nibbles is ignored.  The result fields sum to
// nSites.  It panics if len(chunks) != nibbles.SeqWords(nSites).
func CountSeq(chunks []uint64, nSites int) SeqCounts {
	if len(chunks) != nibbles.SeqWords(nSites) {
		panic("CountSeq() requires len(chunks) == nibbles.SeqWords(nSites).")
	}
	var c SeqCounts
	if nSites == 0 {
		return c
	}
	last := len(chunks) - 1
	for _, w := range chunks[:last] {
		c.Add(CountChunk(w))
	}
	c.Add(CountChunk(chunks[last] & lastWordMask(nSites)))
	c.Gap -= int64(len(chunks)*nibbles.PerWord - nSites)
	return c
}

// CountSeqPair classifies every site of an aligned pair of packed sequences
// sharing one true length.  Padding in the final words is ignored, as in
// CountSeq.  Conserved + Mutated + Deletion of the result equals nSites,
// and Transitions + Transversions equals Mutated.  It panics if either
// operand's length differs from nibbles.SeqWords(nSites).
func CountSeqPair(a, b []uint64, nSites int) PairCounts {
	nWords := nibbles.SeqWords(nSites)
	if len(a) != nWords || len(b) != nWords {
		panic("CountSeqPair() requires len(a) == len(b) == nibbles.SeqWords(nSites).")
	}
	var c PairCounts
	if nSites == 0 {
		return c
	}
	last := nWords - 1
	c = countChunkPairs(a[:last], b[:last])
	m := lastWordMask(nSites)
	c.Add(CountChunkPair(a[last]&m, b[last]&m))
	pad := int64(nWords*nibbles.PerWord - nSites)
	c.Gap -= pad
	c.Deletion -= pad
	return c
}

func countChunkPairs(a, b []uint64) PairCounts {
	var c PairCounts
	for i, w := range a {
		c.Add(CountChunkPair(w, b[i]))
	}
	return c
}

// Shards shorter than this cost more in goroutine plumbing than they save.
const minWordsPerShard = 4096

// CountSeqPairParallel is CountSeqPair with the main loop sharded across
// goroutines.  parallelism <= 0 means runtime.NumCPU(); short sequences
// fall back to the serial path regardless.  The result is bit-identical to
// CountSeqPair's: chunk counts combine by plain summation, so shard
// boundaries cannot affect it.
func CountSeqPairParallel(a, b []uint64, nSites, parallelism int) PairCounts {
	nWords := nibbles.SeqWords(nSites)
	if len(a) != nWords || len(b) != nWords {
		panic("CountSeqPairParallel() requires len(a) == len(b) == nibbles.SeqWords(nSites).")
	}
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	nFull := nWords - 1
	if parallelism < 2 || nFull < 2*minWordsPerShard {
		return CountSeqPair(a, b, nSites)
	}
	nShards := parallelism
	if nShards > nFull/minWordsPerShard {
		nShards = nFull / minWordsPerShard
	}
	partials := make([]PairCounts, nShards)
	if err := traverse.Each(nShards, func(shard int) error {
		start := (shard * nFull) / nShards
		end := ((shard + 1) * nFull) / nShards
		partials[shard] = countChunkPairs(a[start:end], b[start:end])
		return nil
	}); err != nil {
		// The shard closures above never return an error.
		log.Panicf("CountSeqPairParallel: %v", err)
	}
	var c PairCounts
	for i := range partials {
		c.Add(partials[i])
	}
	m := lastWordMask(nSites)
	c.Add(CountChunkPair(a[nFull]&m, b[nFull]&m))
	pad := int64(nWords*nibbles.PerWord - nSites)
	c.Gap -= pad
	c.Deletion -= pad
	return c
}
