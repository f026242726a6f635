package evaluation

// ClassMetrics holds precision/recall/F1 for one class
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// ClassificationReport summarizes hard predictions at a PD cut-off
type ClassificationReport struct {
	Threshold      float64      `json:"threshold"`
	NonDefault     ClassMetrics `json:"non_default"`
	Default        ClassMetrics `json:"default"`
	Accuracy       float64      `json:"accuracy"`
	TruePositives  int          `json:"true_positives"`
	FalsePositives int          `json:"false_positives"`
	TrueNegatives  int          `json:"true_negatives"`
	FalseNegatives int          `json:"false_negatives"`
}

// Classify builds a confusion-matrix report; PD >= threshold counts as predicted default.
// Undefined ratios (0/0) are reported as 0.
func Classify(labels []int, probs []float64, threshold float64) (ClassificationReport, error) {
	if err := checkInput(labels, probs); err != nil {
		return ClassificationReport{}, err
	}

	r := ClassificationReport{Threshold: threshold}
	for i, y := range labels {
		predicted := probs[i] >= threshold
		switch {
		case y == 1 && predicted:
			r.TruePositives++
		case y == 1 && !predicted:
			r.FalseNegatives++
		case y == 0 && predicted:
			r.FalsePositives++
		default:
			r.TrueNegatives++
		}
	}

	r.Default = classMetrics(r.TruePositives, r.FalsePositives, r.FalseNegatives)
	r.NonDefault = classMetrics(r.TrueNegatives, r.FalseNegatives, r.FalsePositives)
	r.Accuracy = ratio(r.TruePositives+r.TrueNegatives, len(labels))

	return r, nil
}

func classMetrics(tp, fp, fn int) ClassMetrics {
	m := ClassMetrics{
		Precision: ratio(tp, tp+fp),
		Recall:    ratio(tp, tp+fn),
		Support:   tp + fn,
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
