// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package nibbles

import (
	"math/bits"
)

// PerWord is the number of nibbles in a 64-bit word.
const PerWord = 16

// Log2PerWord is log2(PerWord).  This is relevant for manual bit-shifting
// when we know that's a safe way to divide and the compiler does not (e.g.
// dividend is of signed int type).
const Log2PerWord = 4

// Bits is the width of a nibble.
const Bits = 4

const (
	// lowBits has bit 0 of each nibble set.
	lowBits = 0x1111111111111111
	// pairLowBits has bit 0 of each 2-bit pair set.
	pairLowBits = 0x5555555555555555
	// low2Bits has the low 2 bits of each nibble set.
	low2Bits = 0x3333333333333333
)

// Popcounts returns the word whose nibble i holds the number of set bits
// (0..4) in nibble i of w.  This is the first half of the usual SWAR
// popcount ladder, stopped at nibble granularity instead of folding all the
// way down to a byte count.
func Popcounts(w uint64) uint64 {
	w -= (w >> 1) & pairLowBits
	return (w & low2Bits) + ((w >> 2) & low2Bits)
}

// MatchMask returns the mask whose nibble i is 0xF iff nibble i of w equals
// nibble i of pattern, and 0x0 otherwise.  pattern is usually a single
// 4-bit value replicated with Broadcast().
//
// The OR-folds push every set bit of each XOR-nibble onto its bit 0; bits
// leaking across nibble boundaries only land on bits 1-3, which the lowBits
// mask discards, so no explicit boundary handling is needed.
func MatchMask(w, pattern uint64) uint64 {
	d := w ^ pattern
	d |= d >> 1
	d |= d >> 2
	d &= lowBits
	return ^(d * 0xF)
}

// ZeroCount returns the number of all-zero nibbles (0..16) in w.  It is the
// terminal reduction for every mask produced by MatchMask: fold each
// nibble's bits together, then popcount the 16 surviving indicator bits.
func ZeroCount(w uint64) int {
	w |= w >> 1
	w |= w >> 2
	w &= lowBits
	return PerWord - bits.OnesCount64(w)
}

// NonzeroCount returns the number of nibbles in w with at least one set bit.
// For the canonical 0x0/0xF masks built by MatchMask, this is the number of
// selected positions; counting code should always reduce masks through this
// function (or ZeroCount) rather than reimplementing the polarity choice.
func NonzeroCount(w uint64) int {
	return PerWord - ZeroCount(w)
}

// Broadcast returns the word with the low 4 bits of code replicated across
// all 16 nibble positions.
func Broadcast(code byte) uint64 {
	return uint64(code&15) * lowBits
}

// SeqWords returns the number of words needed to hold nSites packed nibbles.
// It panics if nSites is negative.
func SeqWords(nSites int) int {
	if nSites < 0 {
		panic("SeqWords() requires nSites >= 0.")
	}
	return (nSites + PerWord - 1) >> Log2PerWord
}

// PackSeq packs the 4-bit codes in src[] into dst[], with src[0] in the
// least-significant nibble of dst[0].  The high 4 bits of each src[] byte
// are ignored.  Trailing padding nibbles of the last word are zeroed.
// It panics if len(dst) != SeqWords(len(src)).
//
// Callers normally pack once and count many times, so this is not written
// for speed.
func PackSeq(dst []uint64, src []byte) {
	if len(dst) != SeqWords(len(src)) {
		panic("PackSeq() requires len(dst) == SeqWords(len(src)).")
	}
	for i := range dst {
		dst[i] = 0
	}
	for pos, code := range src {
		dst[pos>>Log2PerWord] |= uint64(code&15) << (uint(pos&(PerWord-1)) * Bits)
	}
}

// UnpackSeq unpacks len(dst) nibbles from src[] into one byte each, inverse
// of PackSeq().  It panics if len(src) != SeqWords(len(dst)).
//
// Nothing bad happens if padding nibbles past len(dst) in the last src[]
// word are set; they are simply not read.
func UnpackSeq(dst []byte, src []uint64) {
	if len(src) != SeqWords(len(dst)) {
		panic("UnpackSeq() requires len(src) == SeqWords(len(dst)).")
	}
	for pos := range dst {
		dst[pos] = byte(src[pos>>Log2PerWord]>>(uint(pos&(PerWord-1))*Bits)) & 15
	}
}
