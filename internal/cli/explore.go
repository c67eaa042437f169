package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/donut/pkg/donut"
	"github.com/matzehuels/donut/pkg/donut/visual"
	"github.com/matzehuels/donut/pkg/pipeline"
)

// exploreCommand creates the explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var chart chartFlags

	cmd := &cobra.Command{
		Use:   "explore [dataset]",
		Short: "Rotate through a chart's slices in the terminal",
		Long: `Rotate through a chart's slices in the terminal.

Explore always uses the rotating legend: the current slice is turned to the
top of the chart and its neighbors are shown in a scrolling strip.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{}
			if err := chart.apply(&opts); err != nil {
				return err
			}
			opts.Interactive = true
			if err := setInput(&opts, args[0], cmd.InOrStdin()); err != nil {
				return err
			}
			v, err := c.newExploreVisual(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if v.Frame().Empty() {
				printWarning("%s has nothing to draw", displayName(args[0]))
				printWarnings(v.Frame().Warnings)
				return nil
			}

			m := NewExploreModel(displayName(args[0]), v)
			if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run(); err != nil {
				return fmt.Errorf("explore: %w", err)
			}
			return nil
		},
	}

	chart.register(cmd)
	return cmd
}

// newExploreVisual loads the dataset into a long-lived visual.
func (c *CLI) newExploreVisual(ctx context.Context, opts pipeline.Options) (*visual.Visual, error) {
	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	opts.Logger = c.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	res, _, _, err := runner.LoadDataset(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	v := visual.New(visual.WithLogger(c.Logger))
	v.Update(visual.Update{
		Result:            res,
		Viewport:          opts.Viewport(),
		Settings:          opts.ResolvedSettings(),
		SuppressAnimation: true,
	})
	if len(opts.Selected) > 0 {
		ids := make([]donut.Identity, len(opts.Selected))
		for i, id := range opts.Selected {
			ids[i] = donut.Identity(id)
		}
		v.Select(ids...)
	}
	return v, nil
}
