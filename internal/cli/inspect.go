package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/donut/pkg/donut/labels"
	"github.com/matzehuels/donut/pkg/donut/visual"
	"github.com/matzehuels/donut/pkg/pipeline"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		chart  chartFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [dataset]",
		Short: "Show the slices, warnings and culling of a dataset",
		Long: `Show the slices, warnings and culling of a dataset.

Inspect runs conversion, culling and layout without rendering and prints one
row per slice: identity, value, share of the whole and color.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{}
			if err := chart.apply(&opts); err != nil {
				return err
			}
			if err := setInput(&opts, args[0], cmd.InOrStdin()); err != nil {
				return err
			}
			f, err := c.buildFrame(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if asJSON {
				return writeSummaryJSON(cmd.OutOrStdout(), f)
			}
			writeInspect(cmd.OutOrStdout(), displayName(args[0]), f)
			return nil
		},
	}

	chart.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")

	return cmd
}

// buildFrame loads and builds a dataset without the render cache.
func (c *CLI) buildFrame(ctx context.Context, opts pipeline.Options) (visual.Frame, error) {
	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return visual.Frame{}, err
	}
	defer runner.Close()

	opts.Logger = c.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return visual.Frame{}, err
	}
	res, _, _, err := runner.LoadDataset(ctx, opts)
	if err != nil {
		return visual.Frame{}, fmt.Errorf("load: %w", err)
	}
	return runner.Build(ctx, res, opts)
}

func writeSummaryJSON(w io.Writer, f visual.Frame) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(pipeline.Summary{
		Slices:    f.Slices,
		Warnings:  f.Warnings,
		Culled:    f.Culled,
		Threshold: f.Threshold,
		Total:     f.Total,
	})
}

// writeInspect prints the slice table followed by culling and warnings.
func writeInspect(w io.Writer, name string, f visual.Frame) {
	fmt.Fprintln(w, StyleTitle.Render(name))
	fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("%s mode · total %s", f.Mode, formatTotal(f))))
	fmt.Fprintln(w)

	if f.Empty() {
		fmt.Fprintln(w, StyleDim.Render("  nothing to draw"))
	} else {
		fmt.Fprintln(w, sliceTable(f))
	}

	if f.Culled {
		fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+
			StyleWarning.Render(fmt.Sprintf("slices below %s were dropped", formatValue(f, f.Threshold))))
	}
	for _, warn := range f.Warnings {
		fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(string(warn.Code))+" "+warn.Message)
	}
}

func sliceTable(f visual.Frame) string {
	fmtr := formatter(f)
	rows := make([][]string, len(f.Slices))
	for i, s := range f.Slices {
		selected := ""
		if s.Selected {
			selected = iconSuccess
		}
		highlight := ""
		if f.HasHighlights {
			highlight = fmtr.Percent(s.HighlightRatio)
		}
		rows[i] = []string{
			fmt.Sprint(i + 1),
			string(s.ID),
			s.Label,
			fmtr.Value(s.Measure),
			fmtr.Percent(s.Percentage),
			highlight,
			swatch(s.Color) + " " + s.Color,
			selected,
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Identity", "Label", "Value", "Share", "Highlight", "Color", "Sel").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			switch {
			case col == 0 || col == 1:
				return base.Foreground(colorDim)
			case row < len(f.Slices) && f.Slices[row].Selected:
				return base.Inherit(StyleSelected)
			case col == 3 || col == 4:
				return base.Inherit(StyleNumber)
			}
			return base
		})
	return t.Render()
}

func formatter(f visual.Frame) *labels.Formatter {
	maxValue := 0.0
	for _, s := range f.Slices {
		if s.Value > maxValue {
			maxValue = s.Value
		}
	}
	return labels.New(f.Labels, maxValue)
}

func formatValue(f visual.Frame, v float64) string { return formatter(f).Value(v) }

func formatTotal(f visual.Frame) string {
	return strings.TrimSpace(formatValue(f, f.Total))
}
