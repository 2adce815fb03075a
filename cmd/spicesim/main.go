// Command spicesim is the thin CLI boundary spec section 1 calls
// "deliberately out of scope" for the numerical core: it reads a
// netlist file, builds and preprocesses the circuit, runs the
// directive-selected analysis, and prints the result table.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/nyquist-labs/spicekernel/pkg/circuit"
	"github.com/nyquist-labs/spicekernel/pkg/dcsolve"
	"github.com/nyquist-labs/spicekernel/pkg/format"
	"github.com/nyquist-labs/spicekernel/pkg/netlist"
	"github.com/nyquist-labs/spicekernel/pkg/transient"
)

func main() {
	path := flag.String("netlist", "", "path to a netlist file")
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: spicesim -netlist <file>")
		os.Exit(2)
	}

	raw, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("reading netlist: %v", err)
	}

	ckt, err := netlist.Parse(string(raw))
	if err != nil {
		log.Fatalf("parsing netlist: %v", err)
	}

	devices, err := netlist.Build(ckt)
	if err != nil {
		log.Fatalf("building devices: %v", err)
	}

	circ := circuit.New(ckt.Title)
	circ.AddComponents(devices)
	plan, err := circ.Preprocess()
	if err != nil {
		log.Fatalf("preprocessing circuit: %v", err)
	}
	for _, w := range plan.Warnings {
		log.Printf("warning: %s", w)
	}

	switch ckt.Analysis {
	case netlist.AnalysisTRAN:
		runTransient(plan, ckt)
	case netlist.AnalysisOP, netlist.AnalysisDC, netlist.AnalysisNone:
		runOperatingPoint(plan)
	default:
		log.Fatalf("unsupported analysis directive")
	}
}

func runOperatingPoint(plan *circuit.Plan) {
	res, err := dcsolve.Solve(plan)
	if err != nil {
		log.Fatalf("DC solve: %v", err)
	}

	fmt.Println("Operating point")
	fmt.Println("================")
	for _, name := range sortedKeys(res.NodeVoltages) {
		fmt.Printf("V(%s) = %s\n", name, format.Voltage(res.NodeVoltages[name]))
	}
	for _, name := range sortedKeys(res.BranchCurrents) {
		fmt.Printf("I(%s) = %s\n", name, format.Current(res.BranchCurrents[name]))
	}
	if !res.Converged {
		fmt.Println("warning: mode iteration did not converge within the cap")
	}
}

func runTransient(plan *circuit.Plan, ckt *netlist.Circuit) {
	res, err := transient.RunTransient(plan, transient.Params{
		StartTime: ckt.TranParam.TStart,
		StopTime:  ckt.TranParam.TStop,
		TimeStep:  ckt.TranParam.TStep,
	})
	if err != nil {
		log.Fatalf("transient run: %v", err)
	}

	fmt.Println("Transient analysis")
	fmt.Println("===================")
	nodeNames := sortedKeys(res.NodeVoltages)
	stateNames := sortedKeys(res.StateVars)

	fmt.Print("time")
	for _, n := range nodeNames {
		fmt.Printf("\tV(%s)", n)
	}
	for _, n := range stateNames {
		fmt.Printf("\tx(%s)", n)
	}
	fmt.Println()

	for i, t := range res.Times {
		fmt.Print(format.Time(t))
		for _, n := range nodeNames {
			fmt.Printf("\t%.6f", res.NodeVoltages[n][i])
		}
		for _, n := range stateNames {
			fmt.Printf("\t%.6f", res.StateVars[n][i])
		}
		fmt.Println()
	}
	if res.EventCount > 0 {
		fmt.Printf("\n%d switching event(s) localized during the run\n", res.EventCount)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
