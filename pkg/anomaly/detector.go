package anomaly

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"strconv"

	"github.com/supplysight/sctl/pkg/data"
)

// Detector configuration. Contamination is the expected fraction of records
// flagged as anomalous.
type Detector struct {
	Trees         int
	SampleSize    int
	Contamination float64
	Seed          int64
}

// NewDetector returns a detector with the production defaults.
func NewDetector(seed int64) *Detector {
	return &Detector{
		Trees:         200,
		SampleSize:    256,
		Contamination: 0.08,
		Seed:          seed,
	}
}

// Record is one flagged order: the original attributes plus the anomaly
// flag and score. Lower scores are more anomalous, flagged rows are <= 0.
type Record struct {
	Order data.Order `json:"order" yaml:"order"`
	Score float64    `json:"anomaly_score" yaml:"anomalyScore"`
}

// Result holds the flagged subset sorted most-anomalous first.
type Result struct {
	Total     int      `json:"total_orders" yaml:"totalOrders"`
	Anomalies []Record `json:"anomalies" yaml:"anomalies"`
}

// ReportColumns is the anomaly report header: the raw order fields followed
// by the flag and score.
var ReportColumns = append(append([]string{}, data.OrderColumns...), "anomaly_flag", "anomaly_score")

// Detect fits the forest over the numeric order features and flags the
// round(contamination * n) most anomalous records. The seed fixes sampling
// and split choices, so identical input yields identical flags and ranking.
func (d *Detector) Detect(orders []data.Order) (*Result, error) {
	if len(orders) == 0 {
		return nil, errors.New("no orders to score")
	}
	if d.Contamination < 0 || d.Contamination > 0.5 {
		return nil, errors.New("contamination must be in [0, 0.5]")
	}

	x := make([][]float64, len(orders))
	for i, o := range orders {
		x[i] = featureVector(o)
	}

	rng := rand.New(rand.NewSource(d.Seed))
	f := fitForest(x, d.Trees, d.SampleSize, rng)

	scores := make([]float64, len(orders))
	for i := range x {
		scores[i] = f.score(x[i])
	}

	k := int(math.Round(d.Contamination * float64(len(orders))))
	if k > len(orders) {
		k = len(orders)
	}

	res := &Result{Total: len(orders), Anomalies: make([]Record, 0, k)}
	if k == 0 {
		return res, nil
	}

	// Rank by forest score descending, index ascending on exact ties so the
	// flagged set is stable across runs.
	order := make([]int, len(orders))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	// The reported score is the contamination-quantile boundary minus the
	// forest score, so flagged records come out negative and lower means
	// more anomalous.
	offset := scores[order[k-1]]
	if k < len(orders) {
		offset = (scores[order[k-1]] + scores[order[k]]) / 2
	}

	for _, i := range order[:k] {
		res.Anomalies = append(res.Anomalies, Record{
			Order: orders[i],
			Score: round4(offset - scores[i]),
		})
	}

	// Most anomalous first: ascending by reported score.
	sort.SliceStable(res.Anomalies, func(a, b int) bool {
		return res.Anomalies[a].Score < res.Anomalies[b].Score
	})

	return res, nil
}

// ReportTable renders only the flagged rows, already sorted.
func ReportTable(res *Result) *data.Table {
	t := &data.Table{Columns: ReportColumns}
	for _, a := range res.Anomalies {
		row := append(a.Order.Values(), "1", strconv.FormatFloat(a.Score, 'f', 4, 64))
		t.Rows = append(t.Rows, row)
	}
	return t
}

// featureVector selects the numeric order features. Values parsed from
// empty input are already zero, NaN is guarded the same way.
func featureVector(o data.Order) []float64 {
	v := []float64{
		o.DelayDays,
		o.DefectRate,
		o.PriceChangePercent,
		o.UnitPrice,
		float64(o.Quantity),
	}
	for i := range v {
		if math.IsNaN(v[i]) {
			v[i] = 0
		}
	}
	return v
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
