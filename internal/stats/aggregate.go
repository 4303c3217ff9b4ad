package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/marginspect/marginspect/pkg/models"
)

// Options holds the outlier policy. A page is flagged when any margin lies
// more than SigmaThreshold standard deviations from that side's mean, or
// falls below the absolute MinMarginPct floor.
type Options struct {
	SigmaThreshold float64
	MinMarginPct   float64
}

// Aggregate computes per-side statistics over the non-excepted pages and
// flags outliers. With fewer than two samples the deviation is undefined, so
// every margin is treated as matching the mean and nothing is flagged.
func Aggregate(pages []models.PageMargins, exceptions map[int]struct{}, conv models.Convention, opts Options) (models.MarginStatistics, []models.BadPage) {
	sample := Filter(pages, exceptions)

	result := models.MarginStatistics{Convention: conv, SampleCount: len(sample)}
	if len(sample) == 0 {
		return result, nil
	}

	series := sideSeries(sample, conv)
	for i := range series {
		result.Sides[i] = summarize(series[i])
	}

	if len(sample) < 2 {
		return result, nil
	}

	names := conv.SideNames()
	var bad []models.BadPage
	for _, p := range sample {
		var flagged []string
		for i, v := range p.Sides(conv) {
			s := result.Sides[i]
			if math.Abs(v-s.Mean) > opts.SigmaThreshold*s.StdDev || v < opts.MinMarginPct {
				flagged = append(flagged, names[i])
			}
		}
		if len(flagged) > 0 {
			bad = append(bad, models.BadPage{PageIndex: p.PageIndex, Sides: flagged})
		}
	}

	sort.Slice(bad, func(i, j int) bool { return bad[i].PageIndex < bad[j].PageIndex })

	return result, bad
}

// SideQuantile returns the q-quantile (0..1) of each margin side over the
// non-excepted pages, ordered to match the convention's side names. ok is
// false when no pages remain.
func SideQuantile(pages []models.PageMargins, exceptions map[int]struct{}, conv models.Convention, q float64) (values [4]float64, ok bool) {
	sample := Filter(pages, exceptions)
	if len(sample) == 0 {
		return values, false
	}

	series := sideSeries(sample, conv)
	for i, xs := range series {
		sort.Float64s(xs)
		values[i] = quantile(q, xs)
	}

	return values, true
}

// quantile returns the q-quantile of sorted data, linearly interpolating at
// rank q*(n-1) between the two nearest order statistics. gonum's LinInterp
// cumulant is a different estimator (rank q*n), so this is hand-rolled.
func quantile(q float64, sorted []float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}

	h := q * float64(n-1)
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}

	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// Filter returns the pages that are not in the exception set, preserving
// order.
func Filter(pages []models.PageMargins, exceptions map[int]struct{}) []models.PageMargins {
	var sample []models.PageMargins
	for _, p := range pages {
		if _, skip := exceptions[p.PageIndex]; skip {
			continue
		}
		sample = append(sample, p)
	}
	return sample
}

func sideSeries(sample []models.PageMargins, conv models.Convention) [4][]float64 {
	var series [4][]float64
	for _, p := range sample {
		for i, v := range p.Sides(conv) {
			series[i] = append(series[i], v)
		}
	}
	return series
}

func summarize(xs []float64) models.SideStats {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	s := models.SideStats{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   stat.Mean(sorted, nil),
		Median: quantile(0.5, sorted),
		IQR:    quantile(0.75, sorted) - quantile(0.25, sorted),
	}
	if len(sorted) > 1 {
		s.StdDev = stat.PopStdDev(sorted, nil)
	}
	return s
}
