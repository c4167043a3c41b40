// Package main prints the physical circuit parameters a genotype maps to:
// the scaling table, one row per gene, and the synapse and gap junction
// matrices.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gosuri/uitable"
	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/chemotaxis/config"
	"github.com/pthm-cable/chemotaxis/neural"
	"github.com/pthm-cable/chemotaxis/storage"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	results := flag.String("results", "", "Result file to read the genotype from (empty = output.result_file)")
	gene := flag.Int("gene", -1, "Rank of the genotype (-1 = first analysis gene)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	path := cfg.Output.ResultFile
	if *results != "" {
		path = *results
	}
	n := 0
	if genes := cfg.Analysis.Genes(); len(genes) > 0 {
		n = genes[0]
	}
	if *gene >= 0 {
		n = *gene
	}

	recs, err := storage.ReadResultFile(path)
	if err != nil {
		slog.Error("failed to load results", "error", err)
		os.Exit(1)
	}
	if n >= len(recs) {
		slog.Error("gene out of range", "gene", n, "results", len(recs))
		os.Exit(1)
	}

	table := neural.NewScalingTable(cfg.Scaling)
	if err := printParams(os.Stdout, table, neural.Genotype(recs[n].Gene), recs[n].Fitness); err != nil {
		slog.Error("failed to scale genotype", "error", err)
		os.Exit(1)
	}
}

func printParams(w io.Writer, table neural.ScalingTable, g neural.Genotype, fitness float64) error {
	p, err := table.Scale(g)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n ~ Scaling table v%d ~ \n\n", table.Version)
	st := uitable.New()
	st.AddRow("Category", "Min", "Max")
	for c, r := range table.Ranges {
		st.AddRow(neural.Category(c), r.Lo(), r.Hi())
	}
	fmt.Fprintln(w, st)

	fmt.Fprintf(w, "\n ~ Genotype (index %.4f) ~ \n\n", fitness)
	gt := uitable.New()
	gt.MaxColWidth = 40
	gt.AddRow("#", "Gene", "Category", "Value", "Physical")
	for k, spec := range neural.GeneLayout {
		gt.AddRow(k, spec.Name, spec.Category,
			fmt.Sprintf("%+.4f", g[k]),
			fmt.Sprintf("%+.4f", table.Map(spec.Category, g[k])),
		)
	}
	fmt.Fprintln(w, gt)

	fmt.Fprintf(w, "\n ~ Neurons ~ \n\n")
	nt := uitable.New()
	nt.AddRow("Neuron", "theta", "w_ON", "w_OFF", "w_osc")
	for i, name := range neural.NeuronNames {
		nt.AddRow(name,
			fmt.Sprintf("%+.4f", p.Theta[i]),
			fmt.Sprintf("%+.4f", p.WOn[i]),
			fmt.Sprintf("%+.4f", p.WOff[i]),
			fmt.Sprintf("%+.4f", p.WOsc[i]),
		)
	}
	fmt.Fprintln(w, nt)
	fmt.Fprintf(w, "N = %.4f s, M = %.4f s, w_NMJ = %.4f\n", p.N, p.M, p.WNMJ)

	fmt.Fprintf(w, "\n ~ Chemical synapses (row = from, column = to) ~ \n%v\n", matrix(p.SynapseMatrix()))
	fmt.Fprintf(w, "\n ~ Gap junctions ~ \n%v\n\n", matrix(p.GapMatrix()))
	return nil
}

func matrix(m *mat.Dense) fmt.Formatter {
	return mat.Formatted(m, mat.Prefix(" "), mat.Squeeze())
}
