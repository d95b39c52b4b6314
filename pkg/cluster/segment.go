package cluster

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"strconv"

	"github.com/supplysight/sctl/pkg/data"
)

const (
	SegmentReliable = "Reliable"
	SegmentModerate = "Moderate"
	SegmentRisky    = "Risky"
)

// segmentByDelayRank maps the delay ranking (ascending) to segment names.
var segmentByDelayRank = []string{SegmentReliable, SegmentModerate, SegmentRisky}

// Segmenter configuration.
type Segmenter struct {
	Clusters      int
	Inits         int
	MaxIterations int
	Seed          int64
}

// NewSegmenter returns a segmenter with the production defaults.
func NewSegmenter(seed int64) *Segmenter {
	return &Segmenter{
		Clusters:      3,
		Inits:         10,
		MaxIterations: 300,
		Seed:          seed,
	}
}

// SupplierSegment is one row of the cluster report: the original aggregates
// plus the raw cluster index and the resolved segment label.
type SupplierSegment struct {
	data.SupplierAggregate `yaml:",inline"`

	Cluster int    `json:"cluster" yaml:"cluster"`
	Segment string `json:"supplier_segment" yaml:"supplierSegment"`
}

// ReportColumns is the published cluster report header.
var ReportColumns = []string{
	"supplier_id", "avg_delay_days", "avg_defect_rate", "avg_price_change",
	"on_time_rate", "total_orders", "cluster", "supplier_segment",
}

// Segment standardizes the aggregate features, partitions suppliers into
// three clusters, and relabels clusters by ranking mean delay ascending.
// The raw cluster index carries no meaning across runs, the delay ranking
// is the canonical way to recover it.
func (s *Segmenter) Segment(aggregates []data.SupplierAggregate) ([]SupplierSegment, error) {
	if len(aggregates) == 0 {
		return nil, errors.New("no suppliers to segment")
	}

	x := make([][]float64, len(aggregates))
	for i, a := range aggregates {
		x[i] = []float64{a.AvgDelayDays, a.AvgDefectRate, a.AvgPriceChange, a.OnTimeRate}
	}

	rng := rand.New(rand.NewSource(s.Seed))
	assign := kmeans(fitScaler(x).transform(x), s.Clusters, s.Inits, s.MaxIterations, rng)

	labels := labelClusters(aggregates, assign, s.Clusters)

	out := make([]SupplierSegment, 0, len(aggregates))
	for i, a := range aggregates {
		out = append(out, SupplierSegment{
			SupplierAggregate: a,
			Cluster:           assign[i],
			Segment:           labels[assign[i]],
		})
	}

	return out, nil
}

// labelClusters ranks clusters by mean avg_delay_days of their members:
// lowest delay is Reliable, highest is Risky. Clusters left empty by a
// degenerate input rank last.
func labelClusters(aggregates []data.SupplierAggregate, assign []int, k int) map[int]string {
	sums := make([]float64, k)
	counts := make([]int, k)
	for i, a := range aggregates {
		sums[assign[i]] += a.AvgDelayDays
		counts[assign[i]]++
	}

	type clusterDelay struct {
		cluster int
		delay   float64
	}

	ranked := make([]clusterDelay, 0, k)
	for c := 0; c < k; c++ {
		delay := math.Inf(1)
		if counts[c] > 0 {
			delay = sums[c] / float64(counts[c])
		}
		ranked = append(ranked, clusterDelay{cluster: c, delay: delay})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].delay < ranked[j].delay
	})

	labels := make(map[int]string, k)
	for rank, cd := range ranked {
		name := segmentByDelayRank[len(segmentByDelayRank)-1]
		if rank < len(segmentByDelayRank) {
			name = segmentByDelayRank[rank]
		}
		labels[cd.cluster] = name
	}

	return labels
}

// ReportTable renders the cluster report in the published column order.
func ReportTable(segments []SupplierSegment) *data.Table {
	t := &data.Table{Columns: ReportColumns}
	for _, s := range segments {
		t.Rows = append(t.Rows, []string{
			s.SupplierID,
			strconv.FormatFloat(s.AvgDelayDays, 'f', 2, 64),
			strconv.FormatFloat(s.AvgDefectRate, 'f', 4, 64),
			strconv.FormatFloat(s.AvgPriceChange, 'f', 2, 64),
			strconv.FormatFloat(s.OnTimeRate, 'f', 4, 64),
			strconv.FormatInt(s.TotalOrders, 10),
			strconv.Itoa(s.Cluster),
			s.Segment,
		})
	}
	return t
}
