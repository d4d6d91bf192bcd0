package ocr

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	thresholdBlock = 11
	thresholdC     = 2
)

// Preprocess binarizes an image for OCR: grayscale, adaptive Gaussian
// threshold over an 11x11 neighbourhood with offset 2, then a 3x3 median
// filter to drop speckle.
func Preprocess(src image.Image) *image.Gray {
	gray := toGray(src)
	return median3(adaptiveThreshold(gray, thresholdBlock, thresholdC))
}

func toGray(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		return g
	}
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// gaussianKernel matches the sigma OpenCV derives for a given block size.
func gaussianKernel(size int) []float64 {
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	k := make([]float64, size)
	half := size / 2
	var sum float64
	for i := range k {
		x := float64(i - half)
		k[i] = math.Exp(-(x * x) / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func adaptiveThreshold(g *image.Gray, block int, c float64) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return image.NewGray(image.Rect(0, 0, w, h))
	}
	k := gaussianKernel(block)
	half := block / 2

	at := func(x, y int) float64 {
		return float64(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
	}

	// separable blur with replicated borders
	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var s float64
			for i, kv := range k {
				s += kv * at(clamp(x+i-half, 0, w-1), y)
			}
			tmp[y*w+x] = s
		}
	}
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var mean float64
			for i, kv := range k {
				mean += kv * tmp[clamp(y+i-half, 0, h-1)*w+x]
			}
			if at(x, y) > mean-c {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

func median3(g *image.Gray) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	win := make([]uint8, 0, 9)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			win = win[:0]
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					px := g.GrayAt(b.Min.X+clamp(x+dx, 0, w-1), b.Min.Y+clamp(y+dy, 0, h-1))
					win = append(win, px.Y)
				}
			}
			sort.Slice(win, func(i, j int) bool { return win[i] < win[j] })
			out.SetGray(x, y, color.Gray{Y: win[4]})
		}
	}
	return out
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

func writePNG(img image.Image, dir string) (string, error) {
	f, err := os.CreateTemp(dir, "ir-pre-*.png")
	if err != nil {
		return "", err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
