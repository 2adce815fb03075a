package netlist

import (
	"strings"

	"github.com/nyquist-labs/spicekernel/pkg/spiceerr"
)

// parseElementLine dispatches a single component line by the first
// letter of its name, the SPICE convention spec section 6 assumes
// ("NAME node1 node2 [...nodes] value [spec]").
func parseElementLine(line string) (*Element, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return nil, spiceerr.New(spiceerr.InvalidNetlist, "malformed element line %q", line)
	}

	name := fields[0]
	typ := strings.ToUpper(name[:1])

	switch typ {
	case "V", "I":
		return parseSourceLine(typ, fields)
	case "D":
		return parseTwoNodeWithParams(typ, fields, 3)
	case "S":
		return parseTwoNodeWithParams(typ, fields, 3)
	case "M":
		return parseThreeNodeWithParams(typ, fields)
	case "E", "G":
		return parseFourNodeGain(typ, fields)
	case "H", "F":
		return parseControlledCurrentSource(typ, fields)
	case "K":
		return parseCoupling(fields)
	case "R", "C", "L":
		return parseRLC(typ, fields)
	default:
		return nil, spiceerr.New(spiceerr.Unsupported, "unrecognized component prefix %q in %q", typ, name)
	}
}

func parseRLC(typ string, fields []string) (*Element, error) {
	if len(fields) < 4 {
		return nil, spiceerr.New(spiceerr.InvalidNetlist, "%s element requires 2 nodes and a value", fields[0])
	}
	value, err := ParseValue(fields[3])
	if err != nil {
		return nil, spiceerr.Wrap(spiceerr.InvalidNetlist, err, "parsing %s value", fields[0])
	}
	elem := &Element{
		Type:   typ,
		Name:   fields[0],
		Nodes:  []string{fields[1], fields[2]},
		Value:  value,
		Params: parseKeyValueParams(fields[4:]),
	}
	return elem, nil
}

func parseTwoNodeWithParams(typ string, fields []string, minLen int) (*Element, error) {
	if len(fields) < minLen {
		return nil, spiceerr.New(spiceerr.InvalidNetlist, "%s element requires 2 nodes", fields[0])
	}
	return &Element{
		Type:   typ,
		Name:   fields[0],
		Nodes:  []string{fields[1], fields[2]},
		Params: parseKeyValueParams(fields[3:]),
	}, nil
}

func parseThreeNodeWithParams(typ string, fields []string) (*Element, error) {
	if len(fields) < 4 {
		return nil, spiceerr.New(spiceerr.InvalidNetlist, "%s element requires 3 nodes (gate, drain, source)", fields[0])
	}
	return &Element{
		Type:   typ,
		Name:   fields[0],
		Nodes:  []string{fields[1], fields[2], fields[3]},
		Params: parseKeyValueParams(fields[4:]),
	}, nil
}

func parseFourNodeGain(typ string, fields []string) (*Element, error) {
	if len(fields) < 6 {
		return nil, spiceerr.New(spiceerr.InvalidNetlist, "%s element requires 4 nodes and a gain", fields[0])
	}
	gain, err := ParseValue(fields[5])
	if err != nil {
		return nil, spiceerr.Wrap(spiceerr.InvalidNetlist, err, "parsing %s gain", fields[0])
	}
	return &Element{
		Type:  typ,
		Name:  fields[0],
		Nodes: []string{fields[1], fields[2], fields[3], fields[4]},
		Value: gain,
	}, nil
}

// parseControlledCurrentSource handles H (CCVS) and F (CCCS): two
// output nodes, the name of the branch-current-bearing element being
// monitored, and a gain.
func parseControlledCurrentSource(typ string, fields []string) (*Element, error) {
	if len(fields) < 5 {
		return nil, spiceerr.New(spiceerr.InvalidNetlist, "%s element requires 2 nodes, a monitored element, and a gain", fields[0])
	}
	gain, err := ParseValue(fields[4])
	if err != nil {
		return nil, spiceerr.Wrap(spiceerr.InvalidNetlist, err, "parsing %s gain", fields[0])
	}
	return &Element{
		Type:   typ,
		Name:   fields[0],
		Nodes:  []string{fields[1], fields[2]},
		Value:  gain,
		Params: map[string]string{"monitor": fields[3]},
	}, nil
}

// parseCoupling handles K lines: a coupling coefficient between a
// named pair of inductors already declared elsewhere in the netlist.
func parseCoupling(fields []string) (*Element, error) {
	if len(fields) < 4 {
		return nil, spiceerr.New(spiceerr.InvalidNetlist, "K element requires two inductor names and a coupling coefficient")
	}
	k, err := ParseValue(fields[3])
	if err != nil {
		return nil, spiceerr.Wrap(spiceerr.InvalidNetlist, err, "parsing K coupling coefficient")
	}
	return &Element{
		Type:   "K",
		Name:   fields[0],
		Value:  k,
		Params: map[string]string{"l1": fields[1], "l2": fields[2]},
	}, nil
}

// parseKeyValueParams reads trailing key=value tokens such as
// "Vf=0.7 Ron=10m" into a string map; engineering-suffixed values are
// kept as raw strings here and decoded by the caller that knows which
// are numeric.
func parseKeyValueParams(tokens []string) map[string]string {
	if len(tokens) == 0 {
		return nil
	}
	params := make(map[string]string, len(tokens))
	for _, tok := range tokens {
		kv := strings.SplitN(tok, "=", 2)
		if len(kv) != 2 {
			continue
		}
		params[strings.ToLower(kv[0])] = kv[1]
	}
	return params
}

// parseSourceLine handles V/I lines, whose remainder is one of the
// five waveform encodings of spec section 6.
func parseSourceLine(typ string, fields []string) (*Element, error) {
	if len(fields) < 4 {
		return nil, spiceerr.New(spiceerr.InvalidNetlist, "%s element requires 2 nodes and a waveform", fields[0])
	}

	elem := &Element{
		Type:  typ,
		Name:  fields[0],
		Nodes: []string{fields[1], fields[2]},
	}

	remaining := strings.Join(fields[3:], " ")
	remaining = strings.ReplaceAll(remaining, "(", " ")
	remaining = strings.ReplaceAll(remaining, ")", " ")
	words := strings.Fields(remaining)
	if len(words) == 0 {
		return nil, spiceerr.New(spiceerr.InvalidNetlist, "%s element missing waveform", fields[0])
	}

	kind := strings.ToUpper(words[0])
	body := words[1:]
	elem.Params = map[string]string{"waveform": kind, "body": strings.Join(body, " ")}

	switch kind {
	case "DC", "SINE", "SIN", "PULSE", "EXP", "PWL":
		return elem, nil
	default:
		return nil, spiceerr.New(spiceerr.Unsupported, "unsupported waveform kind %q on %s", kind, fields[0])
	}
}
