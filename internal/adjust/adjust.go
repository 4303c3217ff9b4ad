// Package adjust computes the crop or pad amounts needed to bring a page's
// margins to a desired target. Desired margins are percentages of the final
// page, while the measured ones are percentages of the original, so each
// axis is a small linear system rather than a plain subtraction: cutting one
// edge changes the size every other percentage is relative to.
package adjust

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/marginspect/marginspect/internal/stats"
	"github.com/marginspect/marginspect/pkg/models"
)

// Desired holds the target margins as percentages. First and Second are
// left/right, or inner/outer when the inner-outer convention is active.
type Desired struct {
	First  float64
	Second float64
	Top    float64
	Bottom float64
}

// Validate rejects targets outside [0, 100) and opposing pairs that leave no
// page behind (which would also make the axis system singular).
func (d Desired) Validate() error {
	for _, v := range []float64{d.First, d.Second, d.Top, d.Bottom} {
		if v < 0 || v >= 100 {
			return fmt.Errorf("desired margin %.2f%% out of range [0, 100)", v)
		}
	}
	if d.First+d.Second >= 100 {
		return fmt.Errorf("desired horizontal margins %.2f%% + %.2f%% consume the whole page", d.First, d.Second)
	}
	if d.Top+d.Bottom >= 100 {
		return fmt.Errorf("desired vertical margins %.2f%% + %.2f%% consume the whole page", d.Top, d.Bottom)
	}
	return nil
}

// native maps the horizontal targets back to left/right for a given page.
// The parity rule mirrors extraction: even 0-based indices have the spine on
// their right edge.
func (d Desired) native(pageIndex int, conv models.Convention) (left, right float64) {
	if conv == models.InnerOuter && pageIndex%2 == 0 {
		return d.Second, d.First
	}
	return d.First, d.Second
}

// PlanPage computes the signed crop (positive) or pad (negative) amount in
// points for each side of one page.
func PlanPage(m models.PageMargins, desired Desired, conv models.Convention, dims models.PageDims) (models.PageAdjustment, error) {
	left, right := desired.native(m.PageIndex, conv)

	cutLeft, cutRight, err := solveAxis(m.Left, m.Right, left, right)
	if err != nil {
		return models.PageAdjustment{}, fmt.Errorf("page %d horizontal: %w", m.PageIndex, err)
	}

	cutTop, cutBottom, err := solveAxis(m.Top, m.Bottom, desired.Top, desired.Bottom)
	if err != nil {
		return models.PageAdjustment{}, fmt.Errorf("page %d vertical: %w", m.PageIndex, err)
	}

	return models.PageAdjustment{
		PageIndex: m.PageIndex,
		Left:      cutLeft * dims.Width,
		Right:     cutRight * dims.Width,
		Top:       cutTop * dims.Height,
		Bottom:    cutBottom * dims.Height,
	}, nil
}

// PlanDocument builds the per-page plan for every extracted page, excepted
// ones included: a crop plan is only useful if it covers the whole file.
func PlanDocument(pages []models.PageMargins, desired Desired, conv models.Convention, dimsFor func(pageIndex int) (models.PageDims, error)) (models.AdjustmentPlan, error) {
	plan := models.AdjustmentPlan{
		Desired:    [4]float64{desired.First, desired.Second, desired.Top, desired.Bottom},
		Convention: conv,
	}

	for _, m := range pages {
		dims, err := dimsFor(m.PageIndex)
		if err != nil {
			return models.AdjustmentPlan{}, err
		}
		adj, err := PlanPage(m, desired, conv, dims)
		if err != nil {
			return models.AdjustmentPlan{}, err
		}
		plan.Pages = append(plan.Pages, adj)
	}

	return plan, nil
}

// EstimateDocumentCut derives a single whole-document cut from a pessimistic
// (25th percentile) margin estimate, as a percentage of the original page
// per side in the convention's order. ok is false when no pages remain.
func EstimateDocumentCut(pages []models.PageMargins, exceptions map[int]struct{}, desired Desired, conv models.Convention) (pessimistic, cut [4]float64, ok bool, err error) {
	pessimistic, ok = stats.SideQuantile(pages, exceptions, conv, 0.25)
	if !ok {
		return pessimistic, cut, false, nil
	}

	c0, c1, err := solveAxis(pessimistic[0], pessimistic[1], desired.First, desired.Second)
	if err != nil {
		return pessimistic, cut, false, err
	}
	c2, c3, err := solveAxis(pessimistic[2], pessimistic[3], desired.Top, desired.Bottom)
	if err != nil {
		return pessimistic, cut, false, err
	}

	cut = [4]float64{c0 * 100, c1 * 100, c2 * 100, c3 * 100}
	return pessimistic, cut, true, nil
}

// solveAxis finds the cut fractions (of the original page size) for one axis
// so that after cutting, each margin equals its target as a fraction of the
// new size:
//
//	(m0 - c0) / (1 - c0 - c1) = d0
//	(m1 - c1) / (1 - c0 - c1) = d1
//
// Inputs are percentages; outputs are fractions in the original page's units.
func solveAxis(m0Pct, m1Pct, d0Pct, d1Pct float64) (c0, c1 float64, err error) {
	m0, m1 := m0Pct/100, m1Pct/100
	d0, d1 := d0Pct/100, d1Pct/100

	a := mat.NewDense(2, 2, []float64{
		d0 - 1, d0,
		d1, d1 - 1,
	})
	b := mat.NewVecDense(2, []float64{d0 - m0, d1 - m1})

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return 0, 0, fmt.Errorf("no cut reaches margins %.2f%%/%.2f%%: %w", d0Pct, d1Pct, err)
	}

	return x.AtVec(0), x.AtVec(1), nil
}
