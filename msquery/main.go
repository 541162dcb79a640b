// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command msquery loads query results or benchmark files into a
// measure store and runs a script of store queries against it.
//
// Usage:
//
//	msquery [flags] input...
//
// An input of "-" reads standard input. The -format flag selects how
// inputs are decoded:
//
//	selectrows  a selectRows or executeSql JSON response (default)
//	getdata     a visualization getData JSON response
//	cellset     an OLAP cellset JSON response
//	bench       Go benchmark results
//
// Each -m flag names a measure. A measure may also name columns
// holding pre-aggregated results, as in
// "-m time,count=n,sum=total,sumsq=total2,min=lo,max=hi".
//
// The script given by -e or -f has one command per line. Arguments
// are split like a shell would split them. A dimension is a column
// name, or several separated by commas. Commands are:
//
//	columns                            list the store's columns
//	filter DIM VALUE...                keep records whose key is a VALUE
//	range DIM LO HI                    keep records with LO <= key < HI
//	clear DIM                          remove the filter on DIM
//	members DIM                        print the distinct keys of DIM
//	select DIM MEASURE AGG...          print AGGs of MEASURE by DIM
//	series ROWS COLS MEASURE AGG       print AGG of MEASURE by ROWS and COLS
//
// Filters apply to every later command. Without a script, msquery
// lists the store's columns.
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"strings"

	"github.com/aclements/go-measure/measure"
	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

type measureFlags []string

func (m *measureFlags) String() string {
	return strings.Join(*m, " ")
}

func (m *measureFlags) Set(s string) error {
	*m = append(*m, s)
	return nil
}

func main() {
	var (
		flagFormat   = flag.String("format", "selectrows", "input `format`: selectrows, getdata, cellset, or bench")
		flagExpr     = flag.String("e", "", "run query `script`")
		flagFile     = flag.String("f", "", "read query script from `file`")
		flagTSV      = flag.Bool("tsv", false, "print tables as tab-separated values")
		flagVerbose  = flag.Bool("v", false, "log store construction")
		flagMeasures measureFlags
	)
	flag.Var(&flagMeasures, "m", "treat `measure` as a measure (may be repeated)")
	flag.Usage = func() {
		w := flag.CommandLine.Output()
		fmt.Fprintf(w, "Usage: %s [flags] input...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	log.SetPrefix("msquery: ")
	log.SetFlags(0)

	logger := logr.Discard()
	if *flagVerbose {
		stdr.SetVerbosity(1)
		logger = stdr.New(log.New(os.Stderr, "msquery: ", 0))
	}

	script := *flagExpr
	if *flagFile != "" {
		if script != "" {
			log.Fatal("-e and -f are mutually exclusive")
		}
		data, err := ioutil.ReadFile(*flagFile)
		if err != nil {
			log.Fatal(err)
		}
		script = string(data)
	}
	if script == "" {
		script = "columns"
	}

	var measures []measure.Measure
	for _, m := range flagMeasures {
		pm, err := parseMeasure(m)
		if err != nil {
			log.Fatal(err)
		}
		measures = append(measures, pm)
	}

	s, err := load(*flagFormat, flag.Args(), measures, logger)
	if err != nil {
		log.Fatal(err)
	}

	r := &runner{s: s, w: os.Stdout, tsv: *flagTSV}
	if err := r.run(script); err != nil {
		log.Fatal(err)
	}
}
