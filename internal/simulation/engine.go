package simulation

import (
	"math/rand/v2"

	"cltv-rfm/internal/model"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Engine draws customer histories from the BG/NBD and Gamma-Gamma
// generative process.
type Engine struct {
	betaGeo    model.BetaGeoParams
	gammaGamma model.GammaGammaParams
	src        rand.Source
}

// History is one simulated customer. Times are in the unit of the BG/NBD
// parameters; Spend holds one value per transaction including the first.
type History struct {
	Frequency int       `json:"frequency"`
	Recency   float64   `json:"recency"`
	T         float64   `json:"T"`
	Alive     bool      `json:"alive"`
	Times     []float64 `json:"times"`
	Spend     []float64 `json:"spend"`
}

// MeanSpend returns the average transaction value.
func (h History) MeanSpend() float64 {
	return floats.Sum(h.Spend) / float64(len(h.Spend))
}

// NewEngine returns a deterministic engine for the given seed.
func NewEngine(bg model.BetaGeoParams, gg model.GammaGammaParams, seed uint64) *Engine {
	return &Engine{
		betaGeo:    bg,
		gammaGamma: gg,
		src:        rand.NewPCG(seed, seed^0x9e3779b97f4a7c15),
	}
}

// Simulate draws one customer observed for T time units after their first
// purchase. After every repeat purchase the customer drops out with their
// individual probability p.
func (e *Engine) Simulate(T float64) History {
	lambda := distuv.Gamma{Alpha: e.betaGeo.R, Beta: e.betaGeo.Alpha, Src: e.src}.Rand()
	p := distuv.Beta{Alpha: e.betaGeo.A, Beta: e.betaGeo.B, Src: e.src}.Rand()
	nu := distuv.Gamma{Alpha: e.gammaGamma.Q, Beta: e.gammaGamma.V, Src: e.src}.Rand()

	gap := distuv.Exponential{Rate: lambda, Src: e.src}
	dropout := distuv.Bernoulli{P: p, Src: e.src}
	spend := distuv.Gamma{Alpha: e.gammaGamma.P, Beta: nu, Src: e.src}

	h := History{T: T, Alive: true, Times: []float64{0}, Spend: []float64{spend.Rand()}}

	now := 0.0
	for h.Alive {
		next := now + gap.Rand()
		if next >= T {
			break
		}
		now = next
		h.Times = append(h.Times, now)
		h.Spend = append(h.Spend, spend.Rand())
		h.Alive = dropout.Rand() == 0
	}

	h.Frequency = len(h.Times) - 1
	h.Recency = now
	return h
}

// SimulateMany draws one history per tenure.
func (e *Engine) SimulateMany(tenures []float64) []History {
	out := make([]History, len(tenures))
	for i, T := range tenures {
		out[i] = e.Simulate(T)
	}
	return out
}

// Columns returns the model input columns of the histories: repeat purchase
// count, recency, tenure and average spend.
func Columns(histories []History) (frequency, recency, T, monetary []float64) {
	n := len(histories)
	frequency, recency, T, monetary = make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	for i, h := range histories {
		frequency[i] = float64(h.Frequency)
		recency[i] = h.Recency
		T[i] = h.T
		monetary[i] = h.MeanSpend()
	}
	return frequency, recency, T, monetary
}
