package sink

import (
	"bytes"
	"image/png"

	"github.com/HugoSmits86/nativewebp"

	"github.com/matzehuels/donut/pkg/donut/visual"
	"github.com/matzehuels/donut/pkg/errors"
)

// RenderPNG renders the final state of f as a PNG image.
func RenderPNG(f visual.Frame, opts ...RasterOption) ([]byte, error) {
	img, err := Rasterize(f, opts...)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "encode png")
	}
	return buf.Bytes(), nil
}

// RenderWebP renders the final state of f as a lossless WebP image.
func RenderWebP(f visual.Frame, opts ...RasterOption) ([]byte, error) {
	img, err := Rasterize(f, opts...)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, img, nil); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "encode webp")
	}
	return buf.Bytes(), nil
}
