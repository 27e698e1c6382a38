// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package nibbles provides branch-free operations on 64-bit words interpreted
// as arrays of 16 4-bit groups.  These are the building blocks for counting
// .bam-encoded nucleotide sites without unpacking to one byte per base.
//
// Every function here is total: results are well-defined for all 2^64 inputs,
// not just words whose nibbles are valid nucleotide codes.  Higher-level
// semantics (gap/ambiguity classification, etc.) live in the sites package.
package nibbles
