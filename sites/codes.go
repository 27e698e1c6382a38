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

// Nucleotide codes use the .bam seq[] bit assignment: each low bit marks one
// possible base at the site.  An unambiguous base therefore has exactly one
// set bit, an IUPAC ambiguity code has several, and a gap has none.  This is
// the property the mask builders rely on, so these values are not
// rebindable.
const (
	CodeGap byte = 0x0 // '-' or '=': no base
	CodeA   byte = 0x1
	CodeC   byte = 0x2
	CodeM   byte = 0x3 // A|C
	CodeG   byte = 0x4
	CodeR   byte = 0x5 // A|G (purines)
	CodeS   byte = 0x6 // C|G
	CodeV   byte = 0x7 // A|C|G
	CodeT   byte = 0x8
	CodeW   byte = 0x9 // A|T
	CodeY   byte = 0xa // C|T (pyrimidines)
	CodeH   byte = 0xb // A|C|T
	CodeK   byte = 0xc // G|T
	CodeD   byte = 0xd // A|G|T
	CodeB   byte = 0xe // C|G|T
	CodeN   byte = 0xf // any base
)
