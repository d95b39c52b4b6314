package model

import "math"

// Metrics are the held-out evaluation results for one candidate.
// Undefined ratios (zero denominators) report as 0 rather than erroring.
type Metrics struct {
	Accuracy  float64 `json:"accuracy" yaml:"accuracy"`
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	F1        float64 `json:"f1_score" yaml:"f1Score"`
}

// Evaluate computes binary classification metrics on parallel label slices.
func Evaluate(yTrue, yPred []bool) Metrics {
	var tp, tn, fp, fn float64
	for i := range yTrue {
		switch {
		case yPred[i] && yTrue[i]:
			tp++
		case yPred[i] && !yTrue[i]:
			fp++
		case !yPred[i] && yTrue[i]:
			fn++
		default:
			tn++
		}
	}

	m := Metrics{}
	if total := tp + tn + fp + fn; total > 0 {
		m.Accuracy = (tp + tn) / total
	}
	if tp+fp > 0 {
		m.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		m.Recall = tp / (tp + fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}

	return m
}

// Round returns the metrics rounded to four decimals for reporting.
func (m Metrics) Round() Metrics {
	return Metrics{
		Accuracy:  round4(m.Accuracy),
		Precision: round4(m.Precision),
		Recall:    round4(m.Recall),
		F1:        round4(m.F1),
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
