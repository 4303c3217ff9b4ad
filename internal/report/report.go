package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/marginspect/marginspect/pkg/models"
)

// Write prints the aggregate margin statistics followed by blank and bad
// pages.
func Write(w io.Writer, stats models.MarginStatistics, bad []models.BadPage, blank []int) error {
	if stats.SampleCount == 0 {
		if _, err := fmt.Fprintln(w, "No pages to calculate margins."); err != nil {
			return err
		}
		return writePageLists(w, bad, blank)
	}

	if _, err := fmt.Fprintf(w, "Margins (percentage, %d pages):\n", stats.SampleCount); err != nil {
		return err
	}

	names := stats.Convention.SideNames()
	for i, name := range names {
		s := stats.Sides[i]
		_, err := fmt.Fprintf(w, "  %s:\n    Min: %.2f%%\n    Max: %.2f%%\n    Mean: %.2f%%\n    Median: %.2f%%\n    IQR: %.2f%%\n    StdDev: %.2f%%\n",
			title(name), s.Min, s.Max, s.Mean, s.Median, s.IQR, s.StdDev)
		if err != nil {
			return err
		}
	}

	return writePageLists(w, bad, blank)
}

func writePageLists(w io.Writer, bad []models.BadPage, blank []int) error {
	if len(blank) > 0 {
		if _, err := fmt.Fprintf(w, "Blank pages (no content detected): %v\n", blank); err != nil {
			return err
		}
	}

	if len(bad) == 0 {
		_, err := fmt.Fprintln(w, "No bad margin pages detected.")
		return err
	}

	if _, err := fmt.Fprintln(w, "Bad margin pages:"); err != nil {
		return err
	}
	for _, b := range bad {
		if _, err := fmt.Fprintf(w, "  page %d: %s\n", b.PageIndex, strings.Join(b.Sides, ", ")); err != nil {
			return err
		}
	}
	return nil
}

// WriteEstimate prints the pessimistic whole-document view: typical margins
// from the 25th percentile and the single cut that would reach the target.
func WriteEstimate(w io.Writer, conv models.Convention, pessimistic, cut [4]float64) error {
	names := conv.SideNames()

	if _, err := fmt.Fprintln(w, "\nPessimistic estimate of typical margins (percentage):"); err != nil {
		return err
	}
	for i, name := range names {
		if _, err := fmt.Fprintf(w, "  %-6s: %6.2f%%\n", name, pessimistic[i]); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, "\nMargins to cut (percentage of original page):"); err != nil {
		return err
	}
	for i, name := range names {
		if _, err := fmt.Fprintf(w, "  %-6s: %6.1f%%\n", name, cut[i]); err != nil {
			return err
		}
	}
	return nil
}

// WritePlan prints the per-page adjustments in points. Positive values crop
// the side, negative values pad it.
func WritePlan(w io.Writer, plan models.AdjustmentPlan) error {
	if _, err := fmt.Fprintln(w, "\nPer-page adjustments (points, positive = crop, negative = pad):"); err != nil {
		return err
	}
	for _, p := range plan.Pages {
		_, err := fmt.Fprintf(w, "  page %d: left=%.1f right=%.1f top=%.1f bottom=%.1f\n",
			p.PageIndex, p.Left, p.Right, p.Top, p.Bottom)
		if err != nil {
			return err
		}
	}
	return nil
}

// ExportPlan writes the plan as YAML for downstream cropping tools.
func ExportPlan(path string, plan models.AdjustmentPlan) error {
	data, err := yaml.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal adjustment plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write adjustment plan: %w", err)
	}
	return nil
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
