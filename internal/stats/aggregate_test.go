package stats_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/marginspect/marginspect/internal/stats"
	"github.com/marginspect/marginspect/pkg/models"
)

func uniformPages(n int, left, right, top, bottom float64) []models.PageMargins {
	pages := make([]models.PageMargins, n)
	for i := range pages {
		pages[i] = models.PageMargins{PageIndex: i, Left: left, Right: right, Top: top, Bottom: bottom}
	}
	return pages
}

var defaultOpts = stats.Options{SigmaThreshold: 2.0, MinMarginPct: 1.0}

var _ = Describe("Aggregate", func() {
	Context("a document with one narrow page", func() {
		// Ten pages at 10% margins all around, except index 2 at 5%
		// left and right.
		var pages []models.PageMargins

		BeforeEach(func() {
			pages = uniformPages(10, 10, 10, 10, 10)
			pages[2].Left = 5
			pages[2].Right = 5
		})

		It("flags the deviating page on its offending sides only", func() {
			_, bad := stats.Aggregate(pages, nil, models.LeftRight, defaultOpts)

			Expect(bad).To(HaveLen(1))
			Expect(bad[0].PageIndex).To(Equal(2))
			Expect(bad[0].Sides).To(ConsistOf("left", "right"))
		})

		It("computes per-side statistics over all pages", func() {
			result, _ := stats.Aggregate(pages, nil, models.LeftRight, defaultOpts)

			Expect(result.SampleCount).To(Equal(10))
			left := result.Sides[0]
			Expect(left.Min).To(Equal(5.0))
			Expect(left.Max).To(Equal(10.0))
			Expect(left.Mean).To(BeNumerically("~", 9.5, 1e-9))
			Expect(left.StdDev).To(BeNumerically("~", 1.5, 1e-9))
			Expect(left.Median).To(Equal(10.0))

			top := result.Sides[2]
			Expect(top.StdDev).To(BeZero())
			Expect(top.IQR).To(BeZero())
		})

		It("drops excepted pages from the statistics", func() {
			exceptions := map[int]struct{}{2: {}}
			result, bad := stats.Aggregate(pages, exceptions, models.LeftRight, defaultOpts)

			Expect(result.SampleCount).To(Equal(9))
			Expect(result.Sides[0].Mean).To(Equal(10.0))
			Expect(result.Sides[0].StdDev).To(BeZero())
			Expect(bad).To(BeEmpty())
		})
	})

	It("interpolates median and IQR between order statistics", func() {
		pages := []models.PageMargins{
			{PageIndex: 0, Left: 2, Right: 10, Top: 10, Bottom: 10},
			{PageIndex: 1, Left: 4, Right: 10, Top: 10, Bottom: 10},
			{PageIndex: 2, Left: 6, Right: 10, Top: 10, Bottom: 10},
			{PageIndex: 3, Left: 8, Right: 10, Top: 10, Bottom: 10},
		}

		result, _ := stats.Aggregate(pages, nil, models.LeftRight, defaultOpts)

		left := result.Sides[0]
		Expect(left.Median).To(BeNumerically("~", 5.0, 1e-9))
		// Quartiles land between samples: 3.5 and 6.5.
		Expect(left.IQR).To(BeNumerically("~", 3.0, 1e-9))
	})

	It("reports bad pages in ascending page order", func() {
		pages := uniformPages(8, 10, 10, 10, 10)
		pages[6].Left = 0.5
		pages[1].Left = 0.5

		_, bad := stats.Aggregate(pages, nil, models.LeftRight, defaultOpts)

		Expect(bad).To(HaveLen(2))
		Expect(bad[0].PageIndex).To(Equal(1))
		Expect(bad[1].PageIndex).To(Equal(6))
	})

	It("flags margins below the absolute floor even when typical", func() {
		// Every page shares the same severely cropped left edge, so the
		// sigma test alone would pass all of them.
		pages := uniformPages(4, 0.5, 10, 10, 10)

		_, bad := stats.Aggregate(pages, nil, models.LeftRight, defaultOpts)

		Expect(bad).To(HaveLen(4))
		for _, b := range bad {
			Expect(b.Sides).To(ConsistOf("left"))
		}
	})

	Context("with fewer than two non-excepted pages", func() {
		It("never flags a page", func() {
			pages := []models.PageMargins{
				{PageIndex: 0, Left: 0.1, Right: 0.1, Top: 0.1, Bottom: 0.1},
				{PageIndex: 1, Left: 40, Right: 40, Top: 40, Bottom: 40},
			}
			exceptions := map[int]struct{}{1: {}}

			result, bad := stats.Aggregate(pages, exceptions, models.LeftRight, defaultOpts)

			Expect(result.SampleCount).To(Equal(1))
			Expect(result.Sides[0].Mean).To(Equal(0.1))
			Expect(result.Sides[0].StdDev).To(BeZero())
			Expect(bad).To(BeEmpty())
		})

		It("handles an empty sample without statistics", func() {
			result, bad := stats.Aggregate(nil, nil, models.LeftRight, defaultOpts)

			Expect(result.SampleCount).To(BeZero())
			Expect(bad).To(BeEmpty())
		})
	})

	It("aggregates spine-relative sides in inner/outer mode", func() {
		pages := []models.PageMargins{
			{PageIndex: 0, Left: 5, Right: 15, Top: 10, Bottom: 10},
			{PageIndex: 1, Left: 15, Right: 5, Top: 10, Bottom: 10},
		}

		result, bad := stats.Aggregate(pages, nil, models.InnerOuter, defaultOpts)

		Expect(result.Convention).To(Equal(models.InnerOuter))
		Expect(result.Sides[0].Mean).To(Equal(15.0)) // inner
		Expect(result.Sides[1].Mean).To(Equal(5.0))  // outer
		Expect(result.Sides[0].StdDev).To(BeZero())
		Expect(bad).To(BeEmpty())
	})
})

var _ = Describe("SideQuantile", func() {
	It("interpolates the requested quantile per side", func() {
		pages := []models.PageMargins{
			{PageIndex: 0, Left: 0, Right: 8, Top: 10, Bottom: 10},
			{PageIndex: 1, Left: 10, Right: 8, Top: 10, Bottom: 10},
			{PageIndex: 2, Left: 20, Right: 8, Top: 10, Bottom: 10},
			{PageIndex: 3, Left: 30, Right: 8, Top: 10, Bottom: 10},
		}

		values, ok := stats.SideQuantile(pages, nil, models.LeftRight, 0.25)
		Expect(ok).To(BeTrue())
		Expect(values[0]).To(BeNumerically("~", 7.5, 1e-9))
		Expect(values[1]).To(Equal(8.0))
	})

	It("reports no result when every page is excepted", func() {
		pages := uniformPages(2, 10, 10, 10, 10)
		exceptions := map[int]struct{}{0: {}, 1: {}}

		_, ok := stats.SideQuantile(pages, exceptions, models.LeftRight, 0.25)
		Expect(ok).To(BeFalse())
	})
})
