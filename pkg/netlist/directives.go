package netlist

import (
	"strings"

	"github.com/nyquist-labs/spicekernel/pkg/spiceerr"
)

// parseDirective handles the .tran/.dc/.op lines of spec section 6.
// Anything else (.end is filtered out by the caller) is Unsupported.
func parseDirective(ckt *Circuit, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return spiceerr.New(spiceerr.InvalidNetlist, "empty directive")
	}

	switch strings.ToLower(fields[0]) {
	case ".op":
		ckt.Analysis = AnalysisOP
		return nil

	case ".tran":
		return parseTran(ckt, fields)

	case ".dc":
		return parseDCSweep(ckt, fields)

	default:
		return spiceerr.New(spiceerr.Unsupported, "unsupported directive %q", fields[0])
	}
}

func parseTran(ckt *Circuit, fields []string) error {
	if len(fields) < 3 {
		return spiceerr.New(spiceerr.InvalidNetlist, ".tran requires at least tstep and tstop")
	}
	ckt.Analysis = AnalysisTRAN

	var err error
	if ckt.TranParam.TStep, err = ParseValue(fields[1]); err != nil {
		return spiceerr.Wrap(spiceerr.InvalidNetlist, err, "invalid .tran tstep")
	}
	if ckt.TranParam.TStop, err = ParseValue(fields[2]); err != nil {
		return spiceerr.Wrap(spiceerr.InvalidNetlist, err, "invalid .tran tstop")
	}

	for i := 3; i < len(fields); i++ {
		if strings.EqualFold(fields[i], "uic") {
			ckt.TranParam.UseIC = true
			continue
		}
		switch i {
		case 3:
			if ckt.TranParam.TStart, err = ParseValue(fields[i]); err != nil {
				return spiceerr.Wrap(spiceerr.InvalidNetlist, err, "invalid .tran tstart")
			}
		case 4:
			if ckt.TranParam.TMax, err = ParseValue(fields[i]); err != nil {
				return spiceerr.Wrap(spiceerr.InvalidNetlist, err, "invalid .tran tmax")
			}
		}
	}
	if ckt.TranParam.TMax == 0 {
		ckt.TranParam.TMax = ckt.TranParam.TStep
	}
	return nil
}

func parseDCSweep(ckt *Circuit, fields []string) error {
	if len(fields) < 5 {
		return spiceerr.New(spiceerr.InvalidNetlist, ".dc requires source, start, stop, increment")
	}
	ckt.Analysis = AnalysisDC
	ckt.DCParam.Source = fields[1]

	var err error
	if ckt.DCParam.Start, err = ParseValue(fields[2]); err != nil {
		return spiceerr.Wrap(spiceerr.InvalidNetlist, err, "invalid .dc start")
	}
	if ckt.DCParam.Stop, err = ParseValue(fields[3]); err != nil {
		return spiceerr.Wrap(spiceerr.InvalidNetlist, err, "invalid .dc stop")
	}
	if ckt.DCParam.Increment, err = ParseValue(fields[4]); err != nil {
		return spiceerr.Wrap(spiceerr.InvalidNetlist, err, "invalid .dc increment")
	}
	return nil
}
