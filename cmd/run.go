package cmd

import (
	"fmt"
	"math"
	"math/cmplx"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nanospice/nanospice/pkg/analysis"
	"github.com/nanospice/nanospice/pkg/netlist"
	"github.com/nanospice/nanospice/pkg/rawfile"
	"github.com/nanospice/nanospice/pkg/result"
	"github.com/nanospice/nanospice/pkg/util"
)

var (
	outputPath  string
	optionsPath string
)

var runCmd = &cobra.Command{
	Use:   "run <netlist>",
	Short: "Parse a netlist and run its analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading netlist: %v", err)
		}

		deck, err := netlist.Parse(string(content))
		if err != nil {
			return fmt.Errorf("parsing netlist: %v", err)
		}

		opts, err := loadOptions(optionsPath)
		if err != nil {
			return err
		}

		logrus.Infof("running %q", deck.Title)
		set, err := analysis.Run(deck, opts)
		if err != nil {
			return err
		}

		if outputPath != "" {
			f, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("creating output file: %v", err)
			}
			defer f.Close()
			if err := rawfile.Write(f, set); err != nil {
				return fmt.Errorf("writing rawfile: %v", err)
			}
			logrus.Infof("wrote %d points to %s", set.Points(), outputPath)
			return nil
		}

		printResults(set)
		return nil
	},
}

func loadOptions(path string) (analysis.Options, error) {
	opts := analysis.DefaultOptions()
	if path == "" {
		return opts, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("reading options file: %v", err)
	}
	if err := yaml.Unmarshal(content, &opts); err != nil {
		return opts, fmt.Errorf("parsing options file: %v", err)
	}
	return opts, nil
}

func printResults(set *result.Set) {
	fmt.Printf("%s: %s\n\n", set.Plotname, set.Title)

	if set.Points() == 1 && set.Scale() == nil {
		// Operating point: one labeled value per line.
		for _, name := range set.Names() {
			vec := set.Get(name)
			fmt.Printf("  %-12s %s\n", name, util.FormatValueFactor(vec.Real(0), vec.Kind.Unit()))
		}
		return
	}

	if set.Complex() {
		printComplexTable(set)
		return
	}

	names := set.Names()
	for _, name := range names {
		fmt.Printf("%-14s", name)
	}
	fmt.Println()
	for i := 0; i < set.Points(); i++ {
		for _, name := range names {
			fmt.Printf("%-14s", util.FormatMagnitude(set.Get(name).Real(i)))
		}
		fmt.Println()
	}
}

func printComplexTable(set *result.Set) {
	names := set.Names()
	scale := set.Scale()

	fmt.Printf("%-14s", "frequency")
	for _, name := range names {
		if scale != nil && name == scale.Name {
			continue
		}
		fmt.Printf("%-14s%-10s", name+" mag", "phase")
	}
	fmt.Println()

	for i := 0; i < set.Points(); i++ {
		if scale != nil {
			fmt.Printf("%-14s", util.FormatFrequency(scale.Real(i)))
		}
		for _, name := range names {
			if scale != nil && name == scale.Name {
				continue
			}
			value := set.Get(name).Complex(i)
			fmt.Printf("%-14s%-10s",
				util.FormatMagnitude(cmplx.Abs(value)),
				util.FormatPhase(phaseDegrees(value)))
		}
		fmt.Println()
	}
}

func phaseDegrees(value complex128) float64 {
	return cmplx.Phase(value) * 180.0 / math.Pi
}

func init() {
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write results as an ASCII rawfile")
	runCmd.Flags().StringVar(&optionsPath, "options", "", "YAML file with simulator options")
	rootCmd.AddCommand(runCmd)
}
