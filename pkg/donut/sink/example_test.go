package sink_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/donut/pkg/dataview"
	"github.com/matzehuels/donut/pkg/donut"
	"github.com/matzehuels/donut/pkg/donut/settings"
	"github.com/matzehuels/donut/pkg/donut/sink"
	"github.com/matzehuels/donut/pkg/donut/visual"
)

func ExampleRenderSVG() {
	result := dataview.Categorical("Fruit", []string{"Apples", "Pears"}, "Count", []float64{3, 1}, nil)
	frame := visual.New().Update(visual.Update{
		Result:   result,
		Viewport: donut.Viewport{Width: 300, Height: 300},
		Settings: settings.Default(),
	})

	svg := string(sink.RenderSVG(frame, sink.WithoutLegend()))
	fmt.Println(strings.Count(svg, "<path"))
	// Output: 2
}
