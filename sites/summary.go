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
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"strings"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/base/vcontext"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

const (
	seqNamesHeader = "SeqNames"
	trailerVersion = 1

	// Fixed-width little-endian encoding: two uint32 sequence IDs, then
	// NSites and the seven PairCounts fields as 8-byte values.
	pairSummaryBytes = 72
)

// PairSummary pairs the site counts for one aligned sequence pair with the
// identities of the sequences compared.  SeqID1 and SeqID2 index the
// seqNames list passed alongside a batch of summaries; which pairs get
// compared (all-vs-all, all-vs-reference, ...) is the caller's decision.
type PairSummary struct {
	SeqID1 uint32
	SeqID2 uint32
	NSites int64
	Counts PairCounts
}

// Minimal implementation; can optimize later if summary batches ever get
// large enough to matter.

// WritePairSummariesRio writes the given pair summaries to the given
// writer, using recordio with zstd compression.
func WritePairSummariesRio(summaries []PairSummary, seqNames []string, out io.Writer) error {
	// recordiozstd.Init() is called in singleton.go's init().
	recordWriter := recordio.NewWriter(out, recordio.WriterOpts{
		Marshal:      marshalPairSummary,
		Transformers: []string{recordiozstd.Name},
	})
	recordWriter.AddHeader(seqNamesHeader, strings.Join(seqNames, "\000"))
	recordWriter.AddHeader(recordio.KeyTrailer, true)
	for i := range summaries {
		recordWriter.Append(&summaries[i])
	}
	recordWriter.SetTrailer(pairSummariesRioTrailer(summaries))
	return recordWriter.Finish()
}

func pairSummariesRioTrailer(summaries []PairSummary) []byte {
	var buffer bytes.Buffer
	if err := binary.Write(&buffer, binary.LittleEndian, int64(trailerVersion)); err != nil {
		panic("couldn't write trailer version")
	}
	if err := binary.Write(&buffer, binary.LittleEndian, int64(len(summaries))); err != nil {
		panic("couldn't write summary count to trailer")
	}
	if err := binary.Write(&buffer, binary.LittleEndian, pairSummariesChecksum(summaries)); err != nil {
		panic("couldn't write checksum to trailer")
	}
	return buffer.Bytes()
}

func parsePairSummariesTrailer(trailer []byte) (numSummaries int64, checksum uint64, err error) {
	r := bytes.NewReader(trailer)
	var version int64
	if err = binary.Read(r, binary.LittleEndian, &version); err != nil {
		return
	}
	if version != trailerVersion {
		err = errors.Errorf("unrecognized trailer version: got %d, want %d", version, trailerVersion)
		return
	}
	if err = binary.Read(r, binary.LittleEndian, &numSummaries); err != nil {
		return
	}
	err = binary.Read(r, binary.LittleEndian, &checksum)
	return
}

// pairSummariesChecksum fingerprints a summary batch, covering every field
// through the same fixed-width encoding the records are stored with.  It is
// a checksum of logical content, so it survives recordio re-compression.
func pairSummariesChecksum(summaries []PairSummary) uint64 {
	h := seahash.New()
	var buf [pairSummaryBytes]byte
	for i := range summaries {
		putPairSummary(buf[:], &summaries[i])
		h.Write(buf[:])
	}
	return h.Sum64()
}

func putPairSummary(t []byte, s *PairSummary) {
	binary.LittleEndian.PutUint32(t[:4], s.SeqID1)
	binary.LittleEndian.PutUint32(t[4:8], s.SeqID2)
	binary.LittleEndian.PutUint64(t[8:16], uint64(s.NSites))
	binary.LittleEndian.PutUint64(t[16:24], uint64(s.Counts.Conserved))
	binary.LittleEndian.PutUint64(t[24:32], uint64(s.Counts.Mutated))
	binary.LittleEndian.PutUint64(t[32:40], uint64(s.Counts.Transitions))
	binary.LittleEndian.PutUint64(t[40:48], uint64(s.Counts.Transversions))
	binary.LittleEndian.PutUint64(t[48:56], uint64(s.Counts.Gap))
	binary.LittleEndian.PutUint64(t[56:64], uint64(s.Counts.Ambiguous))
	binary.LittleEndian.PutUint64(t[64:72], uint64(s.Counts.Deletion))
}

func marshalPairSummary(scratch []byte, v interface{}) ([]byte, error) {
	t := scratch
	if len(t) < pairSummaryBytes {
		t = make([]byte, pairSummaryBytes)
	}
	// Reslice unconditionally so the bounds-check-eliminator knows len(t).
	t = t[:pairSummaryBytes]
	putPairSummary(t, v.(*PairSummary))
	return t, nil
}

// ReadPairSummariesRio reads pair summaries from a recordio file written by
// WritePairSummariesRio, verifying the trailer checksum.
func ReadPairSummariesRio(rs io.ReadSeeker) (summaries []PairSummary, seqNames []string, err error) {
	var unmarshaller pairSummaryUnmarshaller
	scanner := recordio.NewScanner(rs, recordio.ScannerOpts{
		Unmarshal: unmarshaller.unmarshalPairSummary,
	})
	haveTrailer := len(scanner.Trailer()) != 0
	var numSummaries int64
	var checksum uint64
	if haveTrailer {
		if numSummaries, checksum, err = parsePairSummariesTrailer(scanner.Trailer()); err != nil {
			return
		}
		unmarshaller.init(numSummaries)
	}

	hdr := scanner.Header()
	for _, kv := range hdr {
		switch kv.Key {
		case seqNamesHeader:
			packedSeqNames := kv.Value.(string)
			seqNames = strings.Split(packedSeqNames, "\000")
			// Cannot return an error on unrecognized key since recordio can write its own.
		}
	}

	for scanner.Scan() {
		summaries = append(summaries, *scanner.Get().(*PairSummary))
	}
	if err = scanner.Err(); err != nil {
		err = errors.Wrap(err, "scanning pair summaries")
		return
	}
	if haveTrailer {
		if got := pairSummariesChecksum(summaries); got != checksum {
			err = errors.Errorf("pair-summary checksum mismatch: got %x, want %x", got, checksum)
		}
	}
	return
}

// pairSummaryUnmarshaller is used to allocate memory in large blocks during
// unmarshalling, to prevent contention with other goroutines.
type pairSummaryUnmarshaller struct {
	summaries []PairSummary
	offset    int
}

func (u *pairSummaryUnmarshaller) init(size int64) {
	if u.summaries != nil {
		panic("tried to initialize when already initialized")
	}
	u.summaries = make([]PairSummary, size)
}

func (u *pairSummaryUnmarshaller) unmarshalPairSummary(in []byte) (out interface{}, err error) {
	in = in[:pairSummaryBytes] // help the bounds-checker
	if u.offset == len(u.summaries) {
		u.summaries = append(u.summaries, PairSummary{})
	}
	s := &u.summaries[u.offset]
	u.offset++
	s.SeqID1 = binary.LittleEndian.Uint32(in[:4])
	s.SeqID2 = binary.LittleEndian.Uint32(in[4:8])
	s.NSites = int64(binary.LittleEndian.Uint64(in[8:16]))
	s.Counts.Conserved = int64(binary.LittleEndian.Uint64(in[16:24]))
	s.Counts.Mutated = int64(binary.LittleEndian.Uint64(in[24:32]))
	s.Counts.Transitions = int64(binary.LittleEndian.Uint64(in[32:40]))
	s.Counts.Transversions = int64(binary.LittleEndian.Uint64(in[40:48]))
	s.Counts.Gap = int64(binary.LittleEndian.Uint64(in[48:56]))
	s.Counts.Ambiguous = int64(binary.LittleEndian.Uint64(in[56:64]))
	s.Counts.Deletion = int64(binary.LittleEndian.Uint64(in[64:72]))
	return s, nil
}

// PairSummaryRow represents a single row of a pair-summary TSV.
type PairSummaryRow struct {
	Seq1         string `tsv:"SEQ1"`         // Name of the first sequence
	Seq2         string `tsv:"SEQ2"`         // Name of the second sequence
	NSites       int64  `tsv:"NSITES"`       // Alignment length in sites
	Conserved    int64  `tsv:"CONSERVED"`    // Equal, non-deleted sites
	Mutated      int64  `tsv:"MUTATED"`      // Differing, non-deleted sites
	Transition   int64  `tsv:"TRANSITION"`   // A<->G and C<->T mutations
	Transversion int64  `tsv:"TRANSVERSION"` // All other mutations
	Gap          int64  `tsv:"GAP"`          // Sites gapped in either sequence
	Ambiguous    int64  `tsv:"AMBIGUOUS"`    // Sites ambiguous in either sequence
	Deletion     int64  `tsv:"DELETION"`     // Sites excluded by pairwise deletion
}

func (s *PairSummary) row(seqNames []string) PairSummaryRow {
	return PairSummaryRow{
		Seq1:         seqNames[s.SeqID1],
		Seq2:         seqNames[s.SeqID2],
		NSites:       s.NSites,
		Conserved:    s.Counts.Conserved,
		Mutated:      s.Counts.Mutated,
		Transition:   s.Counts.Transitions,
		Transversion: s.Counts.Transversions,
		Gap:          s.Counts.Gap,
		Ambiguous:    s.Counts.Ambiguous,
		Deletion:     s.Counts.Deletion,
	}
}

// WritePairSummariesTsv writes a []PairSummary as a TSV with a header row.
func WritePairSummariesTsv(summaries []PairSummary, seqNames []string, w io.Writer) error {
	tsvWriter := tsv.NewRowWriter(w)
	for i := range summaries {
		row := summaries[i].row(seqNames)
		if err := tsvWriter.Write(&row); err != nil {
			return err
		}
	}
	return tsvWriter.Flush()
}

// ReadPairSummariesTsv reads a pair-summary TSV from the given io.Reader.
func ReadPairSummariesTsv(r io.Reader) ([]PairSummaryRow, error) {
	tsvReader := tsv.NewReader(r)
	tsvReader.HasHeaderRow = true
	tsvReader.UseHeaderNames = true

	rows := make([]PairSummaryRow, 0)
	for {
		var row PairSummaryRow
		if err := tsvReader.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WritePairSummariesRioAsTsv converts the given pair-summary recordio to
// TSV.
func WritePairSummariesRioAsTsv(ctx context.Context, path string, w io.Writer) (err error) {
	var f file.File
	if f, err = file.Open(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, f, &err)
	var summaries []PairSummary
	var seqNames []string
	if summaries, seqNames, err = ReadPairSummariesRio(f.Reader(ctx)); err != nil {
		return
	}
	return WritePairSummariesTsv(summaries, seqNames, w)
}

// ReadPairSummariesTsvFromPath is a wrapper for ReadPairSummariesTsv that
// takes a path instead of an io.Reader, transparently decompressing .gz
// files.
func ReadPairSummariesTsvFromPath(path string) (rows []PairSummaryRow, err error) {
	ctx := vcontext.Background()
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		if reader, err = gzip.NewReader(reader); err != nil {
			return
		}
	}
	return ReadPairSummariesTsv(reader)
}

// WritePairSummariesTsvToPath is a wrapper for WritePairSummariesTsv that
// takes a path instead of an io.Writer, gzipping when the path ends in .gz.
func WritePairSummariesTsvToPath(summaries []PairSummary, seqNames []string, path string) (err error) {
	ctx := vcontext.Background()
	var dst file.File
	if dst, err = file.Create(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, dst, &err)
	w := io.Writer(dst.Writer(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		gz := gzip.NewWriter(w)
		defer func() {
			if cerr := gz.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		w = gz
	}
	return WritePairSummariesTsv(summaries, seqNames, w)
}
