package netlist

import (
	"strings"

	"github.com/nyquist-labs/spicekernel/pkg/spiceerr"
	"github.com/nyquist-labs/spicekernel/pkg/waveform"
)

// buildWaveform decodes an Element's parsed "waveform"/"body" params
// into a waveform.Descriptor, per the five encodings of spec section 6.
func buildWaveform(elem Element) (waveform.Descriptor, error) {
	kind := elem.Params["waveform"]
	tokens := strings.Fields(elem.Params["body"])

	values := make([]float64, len(tokens))
	for i, tok := range tokens {
		v, err := ParseValue(tok)
		if err != nil {
			return waveform.Descriptor{}, spiceerr.Wrap(spiceerr.InvalidNetlist, err, "%s waveform parameter %d", elem.Name, i)
		}
		values[i] = v
	}

	switch kind {
	case "DC":
		if len(values) < 1 {
			return waveform.Descriptor{}, spiceerr.New(spiceerr.InvalidNetlist, "%s: DC requires a value", elem.Name)
		}
		return waveform.NewDC(values[0]), nil

	case "SINE", "SIN":
		if len(values) < 3 {
			return waveform.Descriptor{}, spiceerr.New(spiceerr.InvalidNetlist, "%s: SINE requires offset, amplitude, frequency", elem.Name)
		}
		var delay, damping float64
		if len(values) > 3 {
			delay = values[3]
		}
		if len(values) > 4 {
			damping = values[4]
		}
		return waveform.NewSine(values[0], values[1], values[2], delay, damping), nil

	case "PULSE":
		if len(values) < 7 {
			return waveform.Descriptor{}, spiceerr.New(spiceerr.InvalidNetlist, "%s: PULSE requires v1 v2 td tr tf pw per", elem.Name)
		}
		return waveform.NewPulse(values[0], values[1], values[2], values[3], values[4], values[5], values[6]), nil

	case "EXP":
		if len(values) < 6 {
			return waveform.Descriptor{}, spiceerr.New(spiceerr.InvalidNetlist, "%s: EXP requires v1 v2 td1 tau1 td2 tau2", elem.Name)
		}
		return waveform.NewExp(values[0], values[1], values[2], values[3], values[4], values[5]), nil

	case "PWL":
		if len(values) < 4 || len(values)%2 != 0 {
			return waveform.Descriptor{}, spiceerr.New(spiceerr.InvalidNetlist, "%s: PWL requires pairs of (t,v) breakpoints", elem.Name)
		}
		n := len(values) / 2
		times := make([]float64, n)
		vals := make([]float64, n)
		for i := 0; i < n; i++ {
			times[i] = values[2*i]
			vals[i] = values[2*i+1]
			if i > 0 && times[i] <= times[i-1] {
				return waveform.Descriptor{}, spiceerr.New(spiceerr.InvalidNetlist, "%s: PWL breakpoints must be strictly increasing in time", elem.Name)
			}
		}
		return waveform.NewPWL(times, vals), nil

	default:
		return waveform.Descriptor{}, spiceerr.New(spiceerr.Unsupported, "%s: unsupported waveform kind %q", elem.Name, kind)
	}
}
