package sink

import (
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/donut/pkg/donut/layout"
	"github.com/matzehuels/donut/pkg/donut/rotation"
	"github.com/matzehuels/donut/pkg/donut/visual"
	"github.com/matzehuels/donut/pkg/errors"
)

const (
	// DefaultSupersample is the raster oversampling factor.
	DefaultSupersample = 2
	// MaxSupersample bounds the oversampling factor.
	MaxSupersample = 4

	// arcStep is the angular resolution of wedge polygons.
	arcStep = math.Pi / 180
)

// RasterOption configures PNG and WebP rendering.
type RasterOption func(*rasterRenderer)

type rasterRenderer struct {
	supersample int
	background  string
	text        bool
}

// WithSupersample sets the oversampling factor, clamped to [1, MaxSupersample].
func WithSupersample(n int) RasterOption {
	return func(r *rasterRenderer) { r.supersample = min(max(n, 1), MaxSupersample) }
}

// WithRasterBackground fills the image with color before drawing.
func WithRasterBackground(color string) RasterOption {
	return func(r *rasterRenderer) { r.background = color }
}

// WithoutText skips labels, legend and legend strip.
func WithoutText() RasterOption { return func(r *rasterRenderer) { r.text = false } }

func newRasterRenderer(opts []RasterOption) rasterRenderer {
	r := rasterRenderer{supersample: DefaultSupersample, text: true}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Rasterize draws the final state of f into an image the size of its viewport.
func Rasterize(f visual.Frame, opts ...RasterOption) (*image.NRGBA, error) {
	return newRasterRenderer(opts).rasterize(f)
}

func (r rasterRenderer) rasterize(f visual.Frame) (*image.NRGBA, error) {
	w, h := int(math.Round(f.Viewport.Width)), int(math.Round(f.Viewport.Height))
	if err := errors.ValidateDimensions(float64(w), float64(h)); err != nil {
		return nil, err
	}
	if w == 0 || h == 0 {
		return nil, errors.New(errors.ErrCodeInvalidViewport, "cannot rasterize an empty %dx%d viewport", w, h)
	}

	ss := r.supersample
	for ss > 1 && max(w, h)*ss > errors.MaxDimension {
		ss--
	}
	s := float64(ss)
	dc := gg.NewContext(w*ss, h*ss)
	defer dc.Close()
	if r.background != "" {
		dc.ClearWithColor(gg.Hex(r.background))
	}

	cx, cy := f.Viewport.Center()
	rot := 0.0
	if f.Rotation != nil {
		rot = f.Rotation.Angle
	}
	for _, a := range f.Arcs {
		g := a.Geometry
		if g.Width() <= 0 || g.OuterRadius <= 0 {
			continue
		}
		c := gg.Hex(a.Color)
		dc.SetRGBA(c.R, c.G, c.B, c.A*a.Opacity)
		wedge(dc, g, rot, cx*s, cy*s, s)
		if err := dc.Fill(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeRender, err, "fill arc %s", a.ID)
		}
	}

	img := downsample(dc.Image(), w, h)
	if r.text {
		drawText(img, f, rot)
	}
	return img, nil
}

// wedge traces an annular sector as a polygon, scaled by s around (cx, cy).
func wedge(dc *gg.Context, g layout.Geometry, rot, cx, cy, s float64) {
	steps := max(int(math.Ceil(g.Width()/arcStep)), 2)
	at := func(angle, radius float64) (float64, float64) {
		x, y := layout.Point(angle+rot, radius*s)
		return cx + x, cy + y
	}

	dc.MoveTo(at(g.StartAngle, g.OuterRadius))
	for i := 1; i <= steps; i++ {
		dc.LineTo(at(g.StartAngle+g.Width()*float64(i)/float64(steps), g.OuterRadius))
	}
	if g.InnerRadius > 0 {
		for i := steps; i >= 0; i-- {
			dc.LineTo(at(g.StartAngle+g.Width()*float64(i)/float64(steps), g.InnerRadius))
		}
	} else {
		dc.LineTo(cx, cy)
	}
	dc.ClosePath()
}

// downsample scales src to w x h with premultiplied Catmull-Rom filtering.
func downsample(src image.Image, w, h int) *image.NRGBA {
	premul := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(premul, premul.Bounds(), src, src.Bounds(), draw.Src, nil)
	out := image.NewNRGBA(premul.Bounds())
	draw.Draw(out, out.Bounds(), premul, image.Point{}, draw.Src)
	return out
}

func drawText(img *image.NRGBA, f visual.Frame, rot float64) {
	face := basicfont.Face7x13
	m := rotation.FaceMeasurer{Face: face}
	cx, cy := f.Viewport.Center()
	sin, cos := math.Sincos(rot)

	labelColor := colorOf(f.Labels.Color, color.NRGBA{0x77, 0x77, 0x77, 0xff})
	for _, l := range f.DataLabels {
		x := l.X*cos - l.Y*sin
		y := l.X*sin + l.Y*cos
		text(img, face, labelColor, cx+x-m.Measure(l.Text)/2, cy+y+4, l.Text)
	}

	ink := color.NRGBA{0x33, 0x33, 0x33, 0xff}
	for _, it := range legendLayout(f, m) {
		if it.Title {
			text(img, face, ink, it.X, it.Y+legendSwatch, it.Label)
			continue
		}
		swatch := image.Rect(int(it.X), int(it.Y), int(it.X+legendSwatch), int(it.Y+legendSwatch))
		draw.Draw(img, swatch, image.NewUniform(colorOf(it.Color, ink)), image.Point{}, draw.Over)
		text(img, face, ink, it.X+legendSwatch+legendGap, it.Y+legendSwatch, it.Label)
	}

	if f.Rotation == nil {
		return
	}
	top := stripTop(f)
	for i, it := range f.Rotation.Strip {
		c := ink
		if !it.Current {
			c.A = 0x66
		}
		e := f.Rotation.Entries[i]
		mid := cx + it.StartX + it.BoxWidth/2
		for row, s := range []string{e.Label, e.Value, e.Percent} {
			text(img, face, c, mid-m.Measure(s)/2, top+12+13*float64(row), s)
		}
	}
}

func text(img draw.Image, face font.Face, c color.Color, x, y float64, s string) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(int(math.Round(x)), int(math.Round(y))),
	}
	d.DrawString(s)
}

func colorOf(hex string, fallback color.NRGBA) color.Color {
	if errors.ValidateColor(hex) != nil {
		return fallback
	}
	return gg.Hex(hex).Color()
}
