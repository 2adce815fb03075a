package netlist

import (
	"github.com/nyquist-labs/spicekernel/internal/consts"
	"github.com/nyquist-labs/spicekernel/pkg/device"
	"github.com/nyquist-labs/spicekernel/pkg/spiceerr"
)

// Build turns a parsed Circuit's elements into the typed device.Device
// list the numerical core consumes. It runs in three passes because H
// (CCVS) and F (CCCS) reference another element's branch current by
// name, and K (coupled inductors) references two inductors by name -
// both require every other device to already exist.
func Build(ckt *Circuit) ([]device.Device, error) {
	byName := make(map[string]device.Device, len(ckt.Elements))
	var devices []device.Device
	var pending []Element // H, F, K deferred to later passes

	for _, elem := range ckt.Elements {
		switch elem.Type {
		case "H", "F", "K":
			pending = append(pending, elem)
			continue
		}
		d, err := createDevice(elem)
		if err != nil {
			return nil, err
		}
		byName[elem.Name] = d
		devices = append(devices, d)
	}

	var inductorPairs []Element
	for _, elem := range pending {
		if elem.Type == "K" {
			inductorPairs = append(inductorPairs, elem)
			continue
		}
		d, err := createControlledSource(elem, byName)
		if err != nil {
			return nil, err
		}
		byName[elem.Name] = d
		devices = append(devices, d)
	}

	groups, err := buildCoupledGroups(inductorPairs, byName)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		devices = append(devices, g)
	}

	return devices, nil
}

func createDevice(elem Element) (device.Device, error) {
	switch elem.Type {
	case "R":
		r, err := device.NewResistor(elem.Name, elem.Nodes, elem.Value)
		if err != nil {
			return nil, err
		}
		applyResistorParams(r, elem.Params)
		return r, nil

	case "C":
		c, err := device.NewCapacitor(elem.Name, elem.Nodes, elem.Value)
		if err != nil {
			return nil, err
		}
		if ic, ok := elem.Params["ic"]; ok {
			v, err := ParseValue(ic)
			if err != nil {
				return nil, spiceerr.Wrap(spiceerr.InvalidNetlist, err, "%s: invalid IC", elem.Name)
			}
			c.SetInitialCondition(v)
		}
		return c, nil

	case "L":
		l, err := device.NewInductor(elem.Name, elem.Nodes, elem.Value, device.StateCurrentForm)
		if err != nil {
			return nil, err
		}
		if ic, ok := elem.Params["ic"]; ok {
			v, err := ParseValue(ic)
			if err != nil {
				return nil, spiceerr.Wrap(spiceerr.InvalidNetlist, err, "%s: invalid IC", elem.Name)
			}
			l.SetInitialCondition(v)
		}
		return l, nil

	case "V":
		wf, err := buildWaveform(elem)
		if err != nil {
			return nil, err
		}
		return device.NewVoltageSource(elem.Name, elem.Nodes, wf)

	case "I":
		wf, err := buildWaveform(elem)
		if err != nil {
			return nil, err
		}
		return device.NewCurrentSource(elem.Name, elem.Nodes, wf)

	case "D":
		vf := consts.DefaultDiodeVf
		ron := consts.DefaultDiodeRon
		roff := consts.DefaultDiodeRoff
		var err error
		if vf, err = paramOr(elem.Params, "vf", vf); err != nil {
			return nil, err
		}
		if ron, err = paramOr(elem.Params, "ron", ron); err != nil {
			return nil, err
		}
		if roff, err = paramOr(elem.Params, "roff", roff); err != nil {
			return nil, err
		}
		return device.NewDiode(elem.Name, elem.Nodes, vf, ron, roff)

	case "S":
		ron := consts.DefaultSwitchRon
		roff := consts.DefaultSwitchRoff
		var err error
		if ron, err = paramOr(elem.Params, "ron", ron); err != nil {
			return nil, err
		}
		if roff, err = paramOr(elem.Params, "roff", roff); err != nil {
			return nil, err
		}
		return device.NewSwitch(elem.Name, elem.Nodes, ron, roff)

	case "M":
		vth := consts.DefaultMosfetVth
		kp := 0.2
		lambda := 0.0
		var err error
		if vth, err = paramOr(elem.Params, "vth", vth); err != nil {
			return nil, err
		}
		if kp, err = paramOr(elem.Params, "kp", kp); err != nil {
			return nil, err
		}
		if lambda, err = paramOr(elem.Params, "lambda", lambda); err != nil {
			return nil, err
		}
		return device.NewMOSFET(elem.Name, elem.Nodes, vth, kp, lambda)

	case "E":
		return device.NewVCVS(elem.Name, elem.Nodes[:2], elem.Nodes[2:4], elem.Value)

	case "G":
		return device.NewVCCS(elem.Name, elem.Nodes[:2], elem.Nodes[2:4], elem.Value)

	default:
		return nil, spiceerr.New(spiceerr.Unsupported, "unrecognized device type %q for %s", elem.Type, elem.Name)
	}
}

func createControlledSource(elem Element, byName map[string]device.Device) (device.Device, error) {
	monitorName := elem.Params["monitor"]
	monitored, ok := byName[monitorName]
	if !ok {
		return nil, spiceerr.New(spiceerr.InvalidNetlist, "%s: monitored element %q not found", elem.Name, monitorName)
	}
	bcs, ok := monitored.(device.BranchCurrentSource)
	if !ok {
		return nil, spiceerr.New(spiceerr.InvalidNetlist, "%s: monitored element %q does not carry a branch current", elem.Name, monitorName)
	}

	switch elem.Type {
	case "H":
		return device.NewCCVS(elem.Name, elem.Nodes, bcs, elem.Value)
	case "F":
		return device.NewCCCS(elem.Name, elem.Nodes, bcs, elem.Value)
	default:
		return nil, spiceerr.New(spiceerr.Unsupported, "unrecognized controlled source type %q", elem.Type)
	}
}

// buildCoupledGroups merges K-line pairs that share an inductor into a
// single CoupledInductorGroup via union-find, then applies each
// pairwise coupling coefficient within its group.
func buildCoupledGroups(pairs []Element, byName map[string]device.Device) ([]*device.CoupledInductorGroup, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	parent := make(map[string]string)
	var find func(string) string
	find = func(x string) string {
		if parent[x] == "" {
			parent[x] = x
		}
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for _, elem := range pairs {
		union(elem.Params["l1"], elem.Params["l2"])
	}

	members := make(map[string][]string)
	for name := range parent {
		root := find(name)
		if !contains(members[root], name) {
			members[root] = append(members[root], name)
		}
	}

	groups := make(map[string]*device.CoupledInductorGroup)
	index := make(map[string]int)
	for root, names := range members {
		inductors := make([]*device.Inductor, 0, len(names))
		for _, name := range names {
			d, ok := byName[name]
			if !ok {
				return nil, spiceerr.New(spiceerr.InvalidNetlist, "K coupling references unknown inductor %q", name)
			}
			l, ok := d.(*device.Inductor)
			if !ok {
				return nil, spiceerr.New(spiceerr.InvalidNetlist, "K coupling member %q is not an inductor", name)
			}
			index[name] = len(inductors)
			inductors = append(inductors, l)
		}
		g, err := device.NewCoupledInductorGroup("K_"+root, inductors)
		if err != nil {
			return nil, err
		}
		groups[root] = g
	}

	for _, elem := range pairs {
		root := find(elem.Params["l1"])
		g := groups[root]
		i, j := index[elem.Params["l1"]], index[elem.Params["l2"]]
		if err := g.SetCoupling(i, j, elem.Value); err != nil {
			return nil, err
		}
	}

	out := make([]*device.CoupledInductorGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, g)
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func applyResistorParams(r *device.Resistor, params map[string]string) {
	if tc1, ok := params["tc1"]; ok {
		if v, err := ParseValue(tc1); err == nil {
			r.TempCoeff1 = v
		}
	}
	if tc2, ok := params["tc2"]; ok {
		if v, err := ParseValue(tc2); err == nil {
			r.TempCoeff2 = v
		}
	}
}

func paramOr(params map[string]string, key string, fallback float64) (float64, error) {
	raw, ok := params[key]
	if !ok {
		return fallback, nil
	}
	v, err := ParseValue(raw)
	if err != nil {
		return 0, spiceerr.Wrap(spiceerr.InvalidNetlist, err, "parsing %s", key)
	}
	return v, nil
}
