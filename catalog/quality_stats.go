package catalog

import "gonum.org/v1/gonum/stat"

// QualitySummary aggregates SSIM statistics over a set of quality rows,
// summarizing a track's approximation quality.
type QualitySummary struct {
	Mean   float64
	Stddev float64
	Min    float64
	N      int
}

// SummarizeQuality computes mean/stddev/min SSIM across rows using gonum's
// running statistics rather than a hand-rolled accumulator.
func SummarizeQuality(rows []QualityRow) QualitySummary {
	if len(rows) == 0 {
		return QualitySummary{}
	}
	values := make([]float64, len(rows))
	min := rows[0].SSIM
	for i, r := range rows {
		values[i] = r.SSIM
		if r.SSIM < min {
			min = r.SSIM
		}
	}
	mean, stddev := stat.MeanStdDev(values, nil)
	return QualitySummary{Mean: mean, Stddev: stddev, Min: min, N: len(rows)}
}
