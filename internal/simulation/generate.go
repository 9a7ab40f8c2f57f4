package simulation

import (
	"fmt"
	"math"
	"time"

	"cltv-rfm/internal/customer"
	"cltv-rfm/internal/model"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat/distuv"
)

const weekDuration = 7 * 24 * time.Hour

var (
	onlineChannels = []string{"Android App", "Ios App", "Mobile", "Desktop"}
	categoryPool   = []string{"KADIN", "ERKEK", "COCUK", "AKTIFSPOR", "AKTIFCOCUK"}

	// Seeds deterministic customer identifiers.
	idNamespace = uuid.MustParse("6f1c3a52-0b4e-4c1d-9a57-6a4ad0d1c0de")
)

// Config describes a synthetic customer base.
type Config struct {
	Customers      int
	Seed           uint64
	AnalysisDate   time.Time
	MinTenureWeeks float64
	MaxTenureWeeks float64
	OnlineShare    float64
	CategoryRate   float64
	BetaGeo        model.BetaGeoParams
	GammaGamma     model.GammaGammaParams
}

// DefaultConfig returns a base resembling a mid-sized omnichannel retailer.
func DefaultConfig() Config {
	return Config{
		Customers:      2000,
		Seed:           1,
		AnalysisDate:   time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC),
		MinTenureWeeks: 4,
		MaxTenureWeeks: 200,
		OnlineShare:    0.7,
		CategoryRate:   0.35,
		BetaGeo:        model.BetaGeoParams{R: 1.2, Alpha: 9, A: 0.6, B: 3.5},
		GammaGamma:     model.GammaGammaParams{P: 4, Q: 3.5, V: 240},
	}
}

// Generate draws customer records whose purchase timings follow the BG/NBD
// process and whose spend follows the Gamma-Gamma process, in weeks. Every
// transaction is assigned to the online or offline channel independently.
func Generate(cfg Config) []customer.Record {
	engine := NewEngine(cfg.BetaGeo, cfg.GammaGamma, cfg.Seed)
	src := engine.src

	tenure := distuv.Uniform{Min: cfg.MinTenureWeeks, Max: cfg.MaxTenureWeeks, Src: src}
	online := distuv.Bernoulli{P: cfg.OnlineShare, Src: src}
	interest := distuv.Bernoulli{P: cfg.CategoryRate, Src: src}
	channel := distuv.NewCategorical(uniformWeights(len(onlineChannels)), src)

	at := func(first time.Time, weeks float64) time.Time {
		return first.Add(time.Duration(weeks * float64(weekDuration))).Truncate(24 * time.Hour)
	}

	records := make([]customer.Record, 0, cfg.Customers)
	for i := 0; i < cfg.Customers; i++ {
		T := math.Floor(tenure.Rand())
		h := engine.Simulate(T)

		first := cfg.AnalysisDate.Add(-time.Duration(T * float64(weekDuration)))
		rec := customer.Record{
			MasterID:             uuid.NewSHA1(idNamespace, fmt.Appendf(nil, "%d/%d", cfg.Seed, i)).String(),
			OrderChannel:         "Offline",
			FirstOrderDate:       at(first, 0),
			LastOrderDate:        at(first, h.Recency),
			LastOrderDateOnline:  at(first, 0),
			LastOrderDateOffline: at(first, 0),
			Categories:           customer.CategorySet{},
		}

		webChannel := onlineChannels[int(channel.Rand())]
		for k, ts := range h.Times {
			if online.Rand() == 1 {
				rec.OrderNumOnline++
				rec.ValueOnline += h.Spend[k]
				rec.LastOrderDateOnline = at(first, ts)
				rec.LastOrderChannel = webChannel
				if k == 0 {
					rec.OrderChannel = webChannel
				}
			} else {
				rec.OrderNumOffline++
				rec.ValueOffline += h.Spend[k]
				rec.LastOrderDateOffline = at(first, ts)
				rec.LastOrderChannel = "Offline"
			}
		}
		rec.ValueOnline = math.Round(rec.ValueOnline*100) / 100
		rec.ValueOffline = math.Round(rec.ValueOffline*100) / 100

		for _, c := range categoryPool {
			if interest.Rand() == 1 {
				rec.Categories[c] = struct{}{}
			}
		}

		records = append(records, rec)
	}
	return records
}

func uniformWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}
