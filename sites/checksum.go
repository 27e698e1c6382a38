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
	"encoding/binary"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/sitecount/nibbles"
)

// SeqChecksum returns a content fingerprint of a packed sequence: a seahash
// over the site count and the valid nibbles, in little-endian word order.
// Padding nibbles do not contribute, so any two packings of the same
// sequence agree.  Pipelines that tally pairs in separate processes use this
// to confirm the processes saw identical inputs before merging summaries.
// It panics if len(chunks) != nibbles.SeqWords(nSites).
func SeqChecksum(chunks []uint64, nSites int) uint64 {
	if len(chunks) != nibbles.SeqWords(nSites) {
		panic("SeqChecksum() requires len(chunks) == nibbles.SeqWords(nSites).")
	}
	h := seahash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(nSites))
	h.Write(buf[:])
	last := len(chunks) - 1
	for i, w := range chunks {
		if i == last {
			w &= lastWordMask(nSites)
		}
		binary.LittleEndian.PutUint64(buf[:], w)
		h.Write(buf[:])
	}
	return h.Sum64()
}
