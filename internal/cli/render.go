package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/donut/pkg/dataview"
	"github.com/matzehuels/donut/pkg/donut/props"
	"github.com/matzehuels/donut/pkg/donut/settings"
	"github.com/matzehuels/donut/pkg/errors"
	"github.com/matzehuels/donut/pkg/pipeline"
)

// stdinName is the input argument that reads a JSON dataset from stdin.
const stdinName = "-"

// chartFlags are the chart options shared by render, inspect and explore.
type chartFlags struct {
	width       float64
	height      float64
	config      string   // settings TOML file
	set         []string // property edits, card.property=value
	selected    []string
	pie         bool
	interactive bool
}

func (f *chartFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.width, "width", pipeline.DefaultWidth, "viewport width")
	cmd.Flags().Float64Var(&f.height, "height", pipeline.DefaultHeight, "viewport height")
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "settings file (TOML)")
	cmd.Flags().StringArrayVar(&f.set, "set", nil, "override a setting, e.g. legend.position=Right or data_point.fill[cat:North]=#ff0000")
	cmd.Flags().StringSliceVar(&f.selected, "select", nil, "slice identities to select, e.g. cat:North")
	cmd.Flags().BoolVar(&f.pie, "pie", false, "draw a pie (no inner radius)")
	cmd.Flags().BoolVar(&f.interactive, "interactive", false, "use the rotating legend")
}

// apply copies the flags into opts. Settings edits are applied on top of the
// config file, or the defaults when there is none.
func (f *chartFlags) apply(opts *pipeline.Options) error {
	opts.Width = f.width
	opts.Height = f.height
	opts.Selected = f.selected
	opts.Pie = f.pie
	opts.Interactive = f.interactive
	if len(f.set) == 0 {
		opts.SettingsPath = f.config
		return nil
	}

	s := settings.Default()
	if f.config != "" {
		loaded, err := settings.Load(f.config)
		if err != nil {
			return err
		}
		s = loaded
	}
	for _, raw := range f.set {
		e, err := parseEdit(raw)
		if err != nil {
			return err
		}
		if s, err = props.Apply(s, e); err != nil {
			return err
		}
	}
	opts.Settings = &s
	return nil
}

// parseEdit parses "card.property=value" or "card.property[selector]=value".
func parseEdit(raw string) (props.Edit, error) {
	key, value, ok := strings.Cut(raw, "=")
	if !ok {
		return props.Edit{}, errors.New(errors.ErrCodeInvalidSettings, "--set %q: expected key=value", raw)
	}
	var selector string
	if open := strings.IndexByte(key, '['); open >= 0 && strings.HasSuffix(key, "]") {
		selector = key[open+1 : len(key)-1]
		key = key[:open]
	}
	card, property, ok := strings.Cut(key, ".")
	if !ok || card == "" || property == "" {
		return props.Edit{}, errors.New(errors.ErrCodeInvalidSettings, "--set %q: expected card.property", raw)
	}
	return props.Edit{Card: card, Property: property, Selector: selector, Value: value}, nil
}

// setInput points opts at a file, a URL or stdin.
func setInput(opts *pipeline.Options, input string, stdin io.Reader) error {
	if input != stdinName {
		opts.Input = input
		return nil
	}
	res, err := dataview.ReadJSON(stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	opts.Dataset = res
	return nil
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		chart      chartFlags
		formatsStr string
		output     string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [dataset]",
		Short: "Render a dataset as a donut chart",
		Long: `Render a dataset as a donut chart.

The dataset is a JSON or TOML file, an http(s) URL, or "-" for JSON on stdin.
Charts are written next to the input unless -o is given; with several formats
-o is a base path and each format gets its own extension.

Results are cached, so re-rendering an unchanged dataset is instant.`,
		Example: `  donut render sales.json
  donut render sales.toml -f svg,png --pie --select cat:North
  donut render https://example.com/sales.json -o chart.webp -f webp
  donut render sales.json --set legend.position=Right --set labels.precision=1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if err := chart.apply(&opts); err != nil {
				return err
			}
			if err := setInput(&opts, args[0], cmd.InOrStdin()); err != nil {
				return err
			}
			opts.NoCache = noCache
			return c.runRender(cmd.Context(), args[0], opts, output)
		},
	}

	chart.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, png, webp (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().IntVar(&opts.Focus, "focus", 0, "rotate the interactive legend by this many slices")
	cmd.Flags().StringVar(&opts.Background, "background", "", "background color, e.g. #ffffff")
	cmd.Flags().IntVar(&opts.Supersample, "supersample", 0, "raster supersampling factor (png, webp)")
	cmd.Flags().BoolVar(&opts.NoLegend, "no-legend", false, "omit the legend")
	cmd.Flags().BoolVar(&opts.Script, "script", false, "embed hover and click handling in the SVG")

	return cmd
}

// runRender executes the pipeline and writes every artifact.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string) error {
	runner, err := c.newRunner(ctx, opts.NoCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", displayName(input)))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render %s: %w", displayName(input), err)
	}
	spinner.Stop()
	logResult(c.Logger, result)

	if err := writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    output,
		stdout:    os.Stdout,
	}); err != nil {
		return err
	}

	cached := result.CacheInfo.FrameHit && result.CacheInfo.RenderHit
	prog.done("Rendered " + displayName(input))
	printStats(len(result.Summary.Slices), len(result.Summary.Warnings), result.Summary.Culled, cached)
	printWarnings(result.Summary.Warnings)
	return nil
}

// artifactWriteParams describes where rendered outputs go.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
	stdout    io.Writer // used when output is "-"
}

// writeArtifacts writes each format to its path and prints the paths.
func writeArtifacts(p artifactWriteParams) error {
	if p.output == stdinName {
		if len(p.formats) != 1 {
			return errors.New(errors.ErrCodeInvalidInput, "-o - needs exactly one format, got %d", len(p.formats))
		}
		_, err := p.stdout.Write(p.artifacts[p.formats[0]])
		return err
	}

	paths := outputPaths(p.output, p.input, p.formats)
	printSuccess("Chart rendered")
	for _, format := range p.formats {
		path := paths[format]
		if err := os.WriteFile(path, p.artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// outputPaths maps each format to its file. A single format uses output as
// given; several formats share the base path.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

// basePath derives the base output path. Without output it strips the
// extension from input; remote inputs and stdin fall back to "chart".
func basePath(output, input string) string {
	if output == "" {
		if input == stdinName || isURL(input) {
			return "chart"
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func displayName(input string) string {
	if input == stdinName {
		return "stdin"
	}
	return input
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
