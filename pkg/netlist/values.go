package netlist

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nyquist-labs/spicekernel/pkg/spiceerr"
)

// unitMap is spec section 6's engineering-suffix table. M means milli
// and MEG means mega - the SPICE convention the spec explicitly calls
// out, not the everyday reading of "M".
var unitMap = map[string]float64{
	"T":   1e12,
	"G":   1e9,
	"MEG": 1e6,
	"K":   1e3,
	"k":   1e3,
	"M":   1e-3,
	"m":   1e-3,
	"u":   1e-6,
	"μ": 1e-6, // μ
	"n":   1e-9,
	"p":   1e-12,
	"f":   1e-15,
}

var valuePattern = regexp.MustCompile(`(?i)^([-+]?\d*\.?\d+(?:[eE][-+]?\d+)?)(meg|t|g|k|m|u|\x{03bc}|n|p|f)?[a-zA-Z]*$`)

// ParseValue decodes a netlist numeric literal with an optional
// engineering suffix, e.g. "1k" -> 1000, "4.7u" -> 4.7e-6.
func ParseValue(val string) (float64, error) {
	trimmed := strings.TrimSpace(val)
	matches := valuePattern.FindStringSubmatch(trimmed)
	if matches == nil {
		return 0, spiceerr.New(spiceerr.Unsupported, "invalid value format %q", val)
	}

	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, spiceerr.Wrap(spiceerr.Unsupported, err, "parsing numeric literal %q", val)
	}

	suffix := matches[2]
	if suffix == "" {
		return num, nil
	}

	// MEG must be matched before the bare "M"/"m" milli case, and the
	// regex is case-insensitive, so resolve the three-letter form
	// explicitly before falling back to a case-sensitive lookup that
	// distinguishes milli ("m") from mega-via-MEG.
	if strings.EqualFold(suffix, "meg") {
		return num * unitMap["MEG"], nil
	}
	if mult, ok := unitMap[suffix]; ok {
		return num * mult, nil
	}
	// Suffix matched case-insensitively against a letter the map only
	// has one case for (e.g. a capitalized "K" already covered, or an
	// unexpected case like "U"); fall back to a lower-case lookup.
	if mult, ok := unitMap[strings.ToLower(suffix)]; ok {
		return num * mult, nil
	}
	return 0, spiceerr.New(spiceerr.Unsupported, "unrecognized engineering suffix %q in %q", suffix, val)
}
