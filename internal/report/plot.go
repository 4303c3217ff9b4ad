package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/marginspect/marginspect/pkg/models"
)

// SavePlot renders one box plot per margin side and writes the chart to
// path. The format follows the file extension (.png, .svg, .pdf).
func SavePlot(path string, pages []models.PageMargins, conv models.Convention) error {
	if len(pages) == 0 {
		return fmt.Errorf("no pages to plot")
	}

	var series [4]plotter.Values
	for _, m := range pages {
		for i, v := range m.Sides(conv) {
			series[i] = append(series[i], v)
		}
	}

	p := plot.New()
	p.Title.Text = "Margin distribution"
	p.Y.Label.Text = "Percent of page"
	p.Y.Min = 0

	for i, values := range series {
		box, err := plotter.NewBoxPlot(vg.Points(40), float64(i), values)
		if err != nil {
			return fmt.Errorf("failed to build box plot: %w", err)
		}
		p.Add(box)
	}

	names := conv.SideNames()
	p.NominalX(title(names[0]), title(names[1]), title(names[2]), title(names[3]))

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
