package neural

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"
)

// NumNeurons is the size of the klinotaxis circuit.
const NumNeurons = 8

// Neuron indices. Interneurons come first, then the four SMB motor neurons.
const (
	AIYL = iota
	AIYR
	AIZL
	AIZR
	SMBVL
	SMBDL
	SMBDR
	SMBVR
)

// NeuronNames maps neuron index to its cell name.
var NeuronNames = [NumNeurons]string{"AIYL", "AIYR", "AIZL", "AIZR", "SMBVL", "SMBDL", "SMBDR", "SMBVR"}

// CircuitParameters are the physical parameters of one circuit.
// W[j][i] and G[j][i] read as "from neuron j to neuron i".
type CircuitParameters struct {
	N     float64 // ON-cell integration window /s
	M     float64 // OFF-cell integration window /s
	Theta [NumNeurons]float64
	WOn   [NumNeurons]float64
	WOff  [NumNeurons]float64
	WOsc  [NumNeurons]float64
	W     [NumNeurons][NumNeurons]float64
	G     [NumNeurons][NumNeurons]float64
	WNMJ  float64 // neuromuscular gain
}

// SynapseMatrix returns a copy of the chemical synapse weights.
func (p *CircuitParameters) SynapseMatrix() *mat.Dense {
	return squareDense(&p.W)
}

// GapMatrix returns a copy of the gap junction weights.
func (p *CircuitParameters) GapMatrix() *mat.Dense {
	return squareDense(&p.G)
}

// LogValue implements slog.LogValuer.
func (p CircuitParameters) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("n", p.N),
		slog.Float64("m", p.M),
		slog.Float64("w_nmj", p.WNMJ),
		slog.String("theta", fmt.Sprintf("%.3f", p.Theta[:])),
		slog.String("w_osc", fmt.Sprintf("%.3f", p.WOsc[:])),
	)
}

func squareDense(a *[NumNeurons][NumNeurons]float64) *mat.Dense {
	data := make([]float64, 0, NumNeurons*NumNeurons)
	for i := range a {
		data = append(data, a[i][:]...)
	}
	return mat.NewDense(NumNeurons, NumNeurons, data)
}
