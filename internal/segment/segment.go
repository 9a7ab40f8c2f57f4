package segment

import (
	"fmt"
	"math"
	"strconv"

	"cltv-rfm/internal/features"
	"cltv-rfm/internal/stats"

	"github.com/rs/zerolog/log"
)

// Segment is a named behavioural group derived from recency and frequency scores.
type Segment string

const (
	Hibernating        Segment = "hibernating"
	AtRisk             Segment = "at_risk"
	CantLoose          Segment = "cant_loose"
	AboutToSleep       Segment = "about_to_sleep"
	NeedAttention      Segment = "need_attention"
	LoyalCustomers     Segment = "loyal_customers"
	Promising          Segment = "promising"
	NewCustomers       Segment = "new_customers"
	PotentialLoyalists Segment = "potential_loyalists"
	Champions          Segment = "champions"
)

// Segments lists every segment, from least to most engaged.
var Segments = []Segment{
	Hibernating,
	AtRisk,
	CantLoose,
	AboutToSleep,
	NeedAttention,
	LoyalCustomers,
	Promising,
	NewCustomers,
	PotentialLoyalists,
	Champions,
}

// Levels is the number of score levels the segment table is defined over.
const Levels = 5

// table is indexed by [recency score - 1][frequency score - 1].
var table = [Levels][Levels]Segment{
	{Hibernating, Hibernating, AtRisk, AtRisk, CantLoose},
	{Hibernating, Hibernating, AtRisk, AtRisk, CantLoose},
	{AboutToSleep, AboutToSleep, NeedAttention, LoyalCustomers, LoyalCustomers},
	{Promising, PotentialLoyalists, PotentialLoyalists, LoyalCustomers, LoyalCustomers},
	{NewCustomers, PotentialLoyalists, PotentialLoyalists, Champions, Champions},
}

// Classify maps a recency and frequency score pair, each in 1..5, to its segment.
func Classify(recency, frequency int) (Segment, error) {
	if recency < 1 || recency > Levels || frequency < 1 || frequency > Levels {
		return "", fmt.Errorf("score pair (%d, %d) outside 1..%d", recency, frequency, Levels)
	}
	return table[recency-1][frequency-1], nil
}

// Assignment is one customer's scores and segment. The R/F/M scores are on
// the 1..bins scale; RFScore is the two-digit key of the segment table.
type Assignment struct {
	ID             string  `json:"master_id"`
	RecencyScore   int     `json:"recency_score"`
	FrequencyScore int     `json:"frequency_score"`
	MonetaryScore  int     `json:"monetary_score"`
	RFScore        string  `json:"rf_score"`
	Segment        Segment `json:"segment"`
}

// toLevel maps a score in 1..bins linearly onto the 1..5 scale of the
// segment table, keeping both ends fixed.
func toLevel(score, bins int) int {
	return 1 + int(math.Round(float64((score-1)*(Levels-1))/float64(bins-1)))
}

// Score cuts recency, frequency and monetary into bins quantile scores and
// assigns segments. Recent customers get the high recency scores; frequency
// is ranked first so repeated counts spread over the bins.
func Score(rows []features.RFMRow, bins int) ([]Assignment, error) {
	if bins < 2 {
		return nil, fmt.Errorf("score bins must be at least 2, got %d", bins)
	}

	recency := make([]float64, len(rows))
	frequency := make([]float64, len(rows))
	monetary := make([]float64, len(rows))
	for i, r := range rows {
		recency[i] = float64(r.Recency)
		frequency[i] = float64(r.Frequency)
		monetary[i] = r.Monetary
	}

	rScores, err := stats.QuantileScore("recency", recency, bins, stats.Descending)
	if err != nil {
		return nil, fmt.Errorf("recency scores: %w", err)
	}
	fScores, err := stats.QuantileScore("frequency", stats.RankFirst(frequency), bins, stats.Ascending)
	if err != nil {
		return nil, fmt.Errorf("frequency scores: %w", err)
	}
	mScores, err := stats.QuantileScore("monetary", monetary, bins, stats.Ascending)
	if err != nil {
		return nil, fmt.Errorf("monetary scores: %w", err)
	}

	out := make([]Assignment, len(rows))
	for i, r := range rows {
		rLevel, fLevel := toLevel(rScores[i], bins), toLevel(fScores[i], bins)
		seg, err := Classify(rLevel, fLevel)
		if err != nil {
			return nil, fmt.Errorf("customer %s: %w", r.ID, err)
		}
		out[i] = Assignment{
			ID:             r.ID,
			RecencyScore:   rScores[i],
			FrequencyScore: fScores[i],
			MonetaryScore:  mScores[i],
			RFScore:        strconv.Itoa(rLevel) + strconv.Itoa(fLevel),
			Segment:        seg,
		}
	}

	log.Debug().Int("customers", len(out)).Int("bins", bins).Msg("RFM scores assigned")
	return out, nil
}
