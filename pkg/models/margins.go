package models

import "fmt"

// Convention selects how horizontal margins are named in reports and
// adjustment targets.
type Convention int

const (
	// LeftRight reports margins in the PDF's native coordinate space.
	LeftRight Convention = iota
	// InnerOuter reports margins relative to the spine of a bound,
	// double-sided document.
	InnerOuter
)

// SideNames returns the four reporting labels in the order used throughout:
// horizontal pair first, then top and bottom.
func (c Convention) SideNames() [4]string {
	if c == InnerOuter {
		return [4]string{"inner", "outer", "top", "bottom"}
	}
	return [4]string{"left", "right", "top", "bottom"}
}

// PageDims holds a page's media box size in points.
type PageDims struct {
	Width  float64
	Height float64
}

// PageMargins records the whitespace around a page's rendered content as
// percentages of the page width/height. Sides are always stored in native
// left/right space; inner/outer mapping happens on read.
type PageMargins struct {
	PageIndex int
	Left      float64
	Right     float64
	Top       float64
	Bottom    float64
}

// Horizontal returns the horizontal margin pair under the given convention.
// In inner/outer mode the spine side alternates with page parity: even
// 0-based indices face the spine on their right edge, odd indices on their
// left.
func (m PageMargins) Horizontal(c Convention) (first, second float64) {
	if c == InnerOuter && m.PageIndex%2 == 0 {
		return m.Right, m.Left
	}
	return m.Left, m.Right
}

// Sides returns all four margin values ordered to match c.SideNames().
func (m PageMargins) Sides(c Convention) [4]float64 {
	first, second := m.Horizontal(c)
	return [4]float64{first, second, m.Top, m.Bottom}
}

// SideStats summarizes one margin side across the document.
type SideStats struct {
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	IQR    float64
	StdDev float64
}

// MarginStatistics aggregates per-side statistics over the non-excepted
// pages of a single run.
type MarginStatistics struct {
	Convention  Convention
	Sides       [4]SideStats
	SampleCount int
}

// BadPage flags a page whose margins deviate from the document's typical
// margins, listing the offending sides by their reporting name.
type BadPage struct {
	PageIndex int
	Sides     []string
}

func (b BadPage) String() string {
	return fmt.Sprintf("page %d: %v", b.PageIndex, b.Sides)
}

// PageAdjustment gives the signed amount, in points, to remove from each
// page edge. Positive values crop, negative values pad.
type PageAdjustment struct {
	PageIndex int     `yaml:"page"`
	Left      float64 `yaml:"left"`
	Right     float64 `yaml:"right"`
	Top       float64 `yaml:"top"`
	Bottom    float64 `yaml:"bottom"`
}

// AdjustmentPlan is the full per-page crop/pad schedule needed to reach the
// desired margins, expressed in the PDF's native coordinate space.
type AdjustmentPlan struct {
	Desired    [4]float64       `yaml:"desired_percent"`
	Convention Convention       `yaml:"-"`
	Pages      []PageAdjustment `yaml:"pages"`
}
