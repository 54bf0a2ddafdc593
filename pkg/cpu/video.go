package cpu

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

const (
	ScreenWidth  = 64
	ScreenHeight = 32
)

var (
	PixelOn  = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	PixelOff = color.RGBA{A: 0xFF}
)

// Framebuffer is the 64x32 monochrome display. Pixels change only through
// Clear and DrawSprite.
type Framebuffer struct {
	pixels [ScreenWidth * ScreenHeight]bool
	dirty  bool
}

// Clear turns every pixel off.
func (fb *Framebuffer) Clear() {
	fb.pixels = [ScreenWidth * ScreenHeight]bool{}
	fb.dirty = true
}

// Pixel reports whether the pixel at (x, y) is on. Coordinates must already
// be in range.
func (fb *Framebuffer) Pixel(x, y int) bool {
	if x < 0 || x >= ScreenWidth || y < 0 || y >= ScreenHeight {
		panic(fmt.Sprintf("cpu: pixel (%d,%d) outside %dx%d framebuffer", x, y, ScreenWidth, ScreenHeight))
	}
	return fb.pixels[y*ScreenWidth+x]
}

// DrawSprite XORs an 8-pixel-wide sprite, one byte per row with the most
// significant bit leftmost, onto the display at (x, y). Coordinates wrap on
// both axes. It reports whether any lit pixel was turned off.
func (fb *Framebuffer) DrawSprite(sprite []byte, x, y int) bool {
	collision := false
	for row, bits := range sprite {
		py := (y + row) % ScreenHeight
		for bit := 0; bit < 8; bit++ {
			if bits&(0x80>>bit) == 0 {
				continue
			}
			px := (x + bit) % ScreenWidth
			idx := py*ScreenWidth + px
			if fb.pixels[idx] {
				collision = true
			}
			fb.pixels[idx] = !fb.pixels[idx]
		}
	}
	fb.dirty = true
	return collision
}

// Dirty reports whether the display changed since the last ClearDirty.
func (fb *Framebuffer) Dirty() bool {
	return fb.dirty
}

func (fb *Framebuffer) ClearDirty() {
	fb.dirty = false
}

// Snapshot returns a copy that is safe to hand to another goroutine.
func (fb *Framebuffer) Snapshot() Framebuffer {
	return *fb
}

// RGBA renders the display into a 64x32 RGBA8888 byte slice.
func (fb *Framebuffer) RGBA(on, off color.RGBA) []byte {
	pixels := make([]byte, ScreenWidth*ScreenHeight*4)
	for i, lit := range fb.pixels {
		c := off
		if lit {
			c = on
		}
		pixels[i*4+0] = c.R
		pixels[i*4+1] = c.G
		pixels[i*4+2] = c.B
		pixels[i*4+3] = c.A
	}
	return pixels
}

// Image returns the display as an *image.RGBA enlarged by scale using
// nearest-neighbour sampling.
func (fb *Framebuffer) Image(scale int) *image.RGBA {
	src := &image.RGBA{
		Pix:    fb.RGBA(PixelOn, PixelOff),
		Stride: ScreenWidth * 4,
		Rect:   image.Rect(0, 0, ScreenWidth, ScreenHeight),
	}
	if scale <= 1 {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, ScreenWidth*scale, ScreenHeight*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// SaveScreenshot encodes the display as a PNG and writes it to filename.
func (fb *Framebuffer) SaveScreenshot(filename string, scale int) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := png.Encode(f, fb.Image(scale)); err != nil {
		return fmt.Errorf("encode screenshot: %w", err)
	}
	return f.Close()
}
