package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"gochip8/pkg/cpu"
	"gochip8/pkg/grid"
)

const (
	cursorHome  = "\x1b[H"
	clearScreen = "\x1b[2J"
	hideCursor  = "\x1b[?25l"
	showCursor  = "\x1b[?25h"
	bell        = "\a"

	// two display rows share one terminal row
	screenRows = cpu.ScreenHeight / 2
)

// renderer draws frames onto a terminal with half-block characters. Frames
// come from the machine goroutine and the bell from the timer goroutine, so
// writes are serialised.
type renderer struct {
	mu  sync.Mutex
	out io.Writer
	buf strings.Builder
}

func newRenderer(out io.Writer) *renderer {
	return &renderer{out: out}
}

func (r *renderer) begin() {
	r.write(hideCursor + clearScreen)
}

func (r *renderer) end() {
	r.write(showCursor + "\n")
}

func (r *renderer) draw(fb cpu.Framebuffer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf.Reset()
	r.buf.WriteString(cursorHome)
	for i := 0; i < cpu.ScreenWidth*screenRows; i++ {
		x, row := grid.GetGridCoords(i, cpu.ScreenWidth)
		r.buf.WriteRune(grid.HalfBlock(fb.Pixel(x, 2*row), fb.Pixel(x, 2*row+1)))
		if x == cpu.ScreenWidth-1 {
			r.buf.WriteString("\r\n")
		}
	}
	_, _ = io.WriteString(r.out, r.buf.String())
}

func (r *renderer) sound(active bool) {
	if active {
		r.write(bell)
	}
}

func (r *renderer) status(line string) {
	r.write(fmt.Sprintf("\x1b[%d;1H\x1b[2K%s", screenRows+1, line))
}

func (r *renderer) write(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = io.WriteString(r.out, s)
}
