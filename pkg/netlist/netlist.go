// Package netlist is the thin, line-oriented textual boundary of spec
// section 6: a SPICE-flavored parser that turns netlist text into a
// Circuit of typed Elements and directive parameters. It is the one
// text-facing collaborator the specification calls out as deliberately
// outside the numerical core - the core (pkg/device, pkg/circuit,
// pkg/transient, pkg/dcsolve) never parses text, only the already-typed
// device.Device/waveform.Descriptor values this package produces.
package netlist

import (
	"bufio"
	"strings"

	"github.com/nyquist-labs/spicekernel/pkg/spiceerr"
)

// AnalysisType names the directive that selected an analysis mode.
type AnalysisType int

const (
	AnalysisNone AnalysisType = iota
	AnalysisOP
	AnalysisTRAN
	AnalysisDC
)

// TransientParams mirrors the .tran directive's fields.
type TransientParams struct {
	TStep  float64
	TStop  float64
	TStart float64
	TMax   float64
	UseIC  bool
}

// DCSweepParams mirrors the .dc directive's fields.
type DCSweepParams struct {
	Source    string
	Start     float64
	Stop      float64
	Increment float64
}

// Element is one parsed netlist line: a typed device reference with
// its node list, headline value, and any extra keyword parameters
// (waveform bodies, model references).
type Element struct {
	Type   string // first letter of Name, upper-cased: R, C, L, V, I, D, M, S, E, G, H, F, K
	Name   string
	Nodes  []string
	Value  float64
	Params map[string]string
}

// Circuit is the parsed document: elements in file order plus whatever
// analysis directive configured the run.
type Circuit struct {
	Title     string
	Elements  []Element
	Analysis  AnalysisType
	TranParam TransientParams
	DCParam   DCSweepParams
}

// Parse reads netlist text per spec section 6: one component per
// line, comments beginning with *, ;, or $, directives beginning with
// a dot, everything else a component line.
func Parse(input string) (*Circuit, error) {
	scanner := bufio.NewScanner(strings.NewReader(input))
	ckt := &Circuit{}

	lineNo := 0
	if scanner.Scan() {
		lineNo++
		ckt.Title = strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "*"))
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || isComment(line) {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if strings.EqualFold(line, ".end") {
				continue
			}
			if err := parseDirective(ckt, line); err != nil {
				return nil, spiceerr.Wrap(spiceerr.InvalidNetlist, err, "line %d", lineNo)
			}
			continue
		}

		elem, err := parseElementLine(line)
		if err != nil {
			return nil, spiceerr.Wrap(spiceerr.InvalidNetlist, err, "line %d", lineNo)
		}
		ckt.Elements = append(ckt.Elements, *elem)
	}

	if err := scanner.Err(); err != nil {
		return nil, spiceerr.Wrap(spiceerr.InvalidNetlist, err, "scanning netlist")
	}
	return ckt, nil
}

func isComment(line string) bool {
	return strings.HasPrefix(line, "*") || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "$")
}
