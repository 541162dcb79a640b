// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bench reads Go benchmark results files and converts them
// into measure records, so benchmark runs can be grouped and compared
// by name and configuration.
//
// The file format is specified at:
// https://github.com/golang/proposal/blob/master/design/14313-benchmark-format.md
package bench

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Benchmark records the configuration and results of a single
// benchmark run (a single line of a benchmark results file).
type Benchmark struct {
	// Name is the name of the benchmark, without the "Benchmark"
	// prefix and without the trailing GOMAXPROCS number.
	Name string

	// Iterations is the number of times this benchmark executed.
	Iterations int

	// Config is the set of configuration pairs for this
	// Benchmark, from both configuration blocks and the benchmark
	// name. A "-N" name suffix is stored as "gomaxprocs".
	Config map[string]*Config

	// Result maps units to measured values.
	Result map[string]float64
}

// Config is a single key/value configuration pair.
type Config struct {
	// Value is the parsed value. It is nil until ParseValues.
	Value interface{}

	// RawValue is the value exactly as written.
	RawValue string

	// InBlock is true if the pair came from a configuration line
	// rather than the benchmark name.
	InBlock bool
}

var configRe = regexp.MustCompile(`^(\p{Ll}[^\p{Lu}\s\x85\xa0\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}]*):(?:[ \t]+(.*))?$`)

// A parser accumulates benchmarks from the lines of one file.
type parser struct {
	config     map[string]*Config
	benchmarks []*Benchmark
}

// Parse parses a Go benchmark results file from r. It returns a
// *Benchmark for each result line. There may be many lines for the
// same name and configuration.
//
// Config values are raw. Use ParseValues to convert them.
func Parse(r io.Reader) ([]*Benchmark, error) {
	p := &parser{
		config:     make(map[string]*Config),
		benchmarks: []*Benchmark{},
	}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.line(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading benchmarks: %w", err)
	}
	return p.benchmarks, nil
}

func (p *parser) line(line string) {
	if line == "testing: warning: no tests to run" {
		return
	}
	if m := configRe.FindStringSubmatch(line); m != nil {
		p.config[m[1]] = &Config{RawValue: m[2], InBlock: true}
		return
	}
	if !strings.HasPrefix(line, "Benchmark") {
		return
	}
	if b := p.benchmark(strings.Fields(line)); b != nil {
		p.benchmarks = append(p.benchmarks, b)
	}
}

// benchmark parses the fields of a benchmark line, or returns nil if
// it is not a well-formed result.
func (p *parser) benchmark(f []string) *Benchmark {
	if len(f) < 4 {
		return nil
	}
	if f[0] != "Benchmark" {
		next, _ := utf8.DecodeRuneInString(f[0][len("Benchmark"):])
		if !unicode.IsUpper(next) {
			return nil
		}
	}
	n, err := strconv.Atoi(f[1])
	if err != nil || n <= 0 {
		return nil
	}

	b := &Benchmark{
		Iterations: n,
		Config:     make(map[string]*Config, len(p.config)+1),
		Result:     make(map[string]float64),
	}
	for k, v := range p.config {
		b.Config[k] = v
	}
	b.setName(strings.TrimPrefix(f[0], "Benchmark"))

	for i := 2; i+2 <= len(f); i += 2 {
		val, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			continue
		}
		b.Result[f[i+1]] = val
	}
	return b
}

// setName splits name into the benchmark name and its name
// configuration: "X/k:v" or "X-N".
func (b *Benchmark) setName(name string) {
	switch {
	case strings.Contains(name, "/"):
		parts := strings.Split(name, "/")
		name = parts[0]
		for _, part := range parts[1:] {
			if i := strings.Index(part, ":"); i >= 0 {
				b.Config[part[:i]] = &Config{RawValue: part[i+1:]}
			}
		}
	case strings.LastIndex(name, "-") >= 0:
		i := strings.LastIndex(name, "-")
		if _, err := strconv.Atoi(name[i+1:]); err == nil {
			b.Config["gomaxprocs"] = &Config{RawValue: name[i+1:]}
			name = name[:i]
		}
	}
	b.Name = name
	if b.Config["gomaxprocs"] == nil {
		b.Config["gomaxprocs"] = &Config{RawValue: "1"}
	}
}

// ValueParser parses a raw config value into a structured type.
type ValueParser func(string) (interface{}, error)

// DefaultValueParsers are tried in order by ParseValues if no parsers
// are given.
var DefaultValueParsers = []ValueParser{
	func(s string) (interface{}, error) { return strconv.Atoi(s) },
	func(s string) (interface{}, error) { return strconv.ParseFloat(s, 64) },
	func(s string) (interface{}, error) { return time.ParseDuration(s) },
}

// ParseValues sets the Value of every config pair in benchmarks.
//
// For each key, ParseValues uses the first of valueParsers that can
// parse every raw value of that key. If none can, the values are the
// raw strings. If valueParsers is nil, it uses DefaultValueParsers.
func ParseValues(benchmarks []*Benchmark, valueParsers []ValueParser) {
	if valueParsers == nil {
		valueParsers = DefaultValueParsers
	}

	// Config pairs from a block are shared between benchmarks,
	// so gather each distinct pair once.
	byKey := make(map[string][]*Config)
	seen := make(map[*Config]bool)
	for _, b := range benchmarks {
		for k, c := range b.Config {
			if !seen[c] {
				seen[c] = true
				byKey[k] = append(byKey[k], c)
			}
		}
	}

	for _, configs := range byKey {
		parseKey(configs, valueParsers)
	}
}

func parseKey(configs []*Config, valueParsers []ValueParser) {
	vals := make([]interface{}, len(configs))
parsers:
	for _, vp := range valueParsers {
		for i, c := range configs {
			v, err := vp(c.RawValue)
			if err != nil {
				continue parsers
			}
			vals[i] = v
		}
		for i, c := range configs {
			c.Value = vals[i]
		}
		return
	}
	for _, c := range configs {
		c.Value = c.RawValue
	}
}
