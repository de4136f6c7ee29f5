package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// ErrAnimatedGIF is returned by Resize for multi-frame GIFs, which are
// stored unchanged.
var ErrAnimatedGIF = errors.New("animated gif is not resized")

// ErrTooManyPixels is returned by Resize when the declared dimensions exceed
// MaxResizePixels. The header is checked before any pixel data is decoded.
var ErrTooManyPixels = errors.New("image dimensions exceed resize budget")

// MaxResizePixels caps width*height of images Resize will decode.
const MaxResizePixels = 40_000_000

const jpegQuality = 85

// ResizeFunc scales an encoded image so its longest edge is at most maxEdge.
type ResizeFunc func(data []byte, contentType string, maxEdge int) ([]byte, error)

// Resize decodes data, scales it down with Catmull-Rom resampling keeping
// the aspect ratio, and re-encodes it in the source format. Images already
// within bounds are returned unchanged. It never upscales.
func Resize(data []byte, contentType string, maxEdge int) ([]byte, error) {
	if maxEdge <= 0 {
		return data, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= maxEdge && cfg.Height <= maxEdge {
		return data, nil
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxResizePixels {
		return nil, ErrTooManyPixels
	}

	if contentType == "image/gif" {
		g, err := gif.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode gif: %w", err)
		}
		if len(g.Image) > 1 {
			return nil, ErrAnimatedGIF
		}
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxEdge && h <= maxEdge {
		return data, nil
	}

	nw, nh := scaledSize(w, h, maxEdge)
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	case "png":
		err = png.Encode(&buf, dst)
	case "gif":
		err = gif.Encode(&buf, dst, nil)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}

	return buf.Bytes(), nil
}

// scaledSize fits w x h inside a maxEdge square.
func scaledSize(w, h, maxEdge int) (int, int) {
	if w >= h {
		nh := h * maxEdge / w
		if nh < 1 {
			nh = 1
		}
		return maxEdge, nh
	}
	nw := w * maxEdge / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxEdge
}
