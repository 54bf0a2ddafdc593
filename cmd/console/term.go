package main

import (
	"fmt"
	"os"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// rawTerminal switches stdin out of canonical mode so single key presses
// reach the keypad without waiting for a newline.
type rawTerminal struct {
	original unix.Termios
}

func enableRawMode() (*rawTerminal, error) {
	fd := os.Stdin.Fd()
	if !term.IsTerminal(int(fd)) {
		return nil, fmt.Errorf("stdin is not a terminal")
	}

	rt := &rawTerminal{}
	if err := termios.Tcgetattr(fd, &rt.original); err != nil {
		return nil, fmt.Errorf("reading terminal attributes: %w", err)
	}
	raw := rt.original
	raw.Lflag &^= unix.ICANON | unix.ECHO
	if err := termios.Tcsetattr(fd, termios.TCSANOW, &raw); err != nil {
		return nil, fmt.Errorf("setting terminal attributes: %w", err)
	}
	return rt, nil
}

func (rt *rawTerminal) restore() error {
	return termios.Tcsetattr(os.Stdin.Fd(), termios.TCSANOW, &rt.original)
}

// fitsScreen reports whether the output terminal can show the whole display.
func fitsScreen(cols, rows int) (bool, error) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return false, fmt.Errorf("reading terminal size: %w", err)
	}
	return width >= cols && height >= rows, nil
}
