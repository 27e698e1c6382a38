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
package main

/*
site-summary converts a pair-summary recordio file, as produced by
site-counting pipelines, to TSV for ad-hoc inspection and downstream
distance estimators.
*/

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/sitecount/sites"
)

var out = flag.String("out", "", "Output TSV path, gzip-compressed when it ends in .gz. Empty means stdout")

func siteSummaryUsage() {
	fmt.Printf("Usage: %s [OPTIONS] riopath\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func convert(riopath, outpath string) (err error) {
	ctx := vcontext.Background()
	if outpath == "" {
		return sites.WritePairSummariesRioAsTsv(ctx, riopath, os.Stdout)
	}
	var in file.File
	if in, err = file.Open(ctx, riopath); err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, in, &err)
	summaries, seqNames, err := sites.ReadPairSummariesRio(in.Reader(ctx))
	if err != nil {
		return err
	}
	return sites.WritePairSummariesTsvToPath(summaries, seqNames, outpath)
}

func main() {
	flag.Usage = siteSummaryUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("Exactly one positional argument (riopath) expected; please check flag syntax: '%s'", strings.Join(flag.Args(), " "))
	}
	if err := convert(flag.Arg(0), *out); err != nil {
		log.Panicf("%v", err)
	}
}
