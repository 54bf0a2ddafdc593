package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"

	"gochip8/pkg/cpu"
	"gochip8/pkg/peripherals"
	"gochip8/pkg/utils"
)

const escapeKey = 0x1b

// readKeys feeds host key presses into the keypad until r fails. A lone
// escape calls quit. An escape followed by more bytes in the same read
// starts a sequence such as an arrow key, and the rest of the read is
// skipped. Terminals never report releases, so every press is a tap.
func readKeys(r io.Reader, keypad *peripherals.Keypad, hold time.Duration, quit func()) {
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		for i, b := range buf[:n] {
			if b == escapeKey {
				if i == n-1 {
					quit()
					return
				}
				break
			}
			if k, ok := peripherals.KeyForRune(rune(b)); ok {
				keypad.Tap(k, hold)
			}
		}
		if err != nil {
			return
		}
	}
}

func main() {
	hz := flag.Int("hz", cpu.DefaultHz, "instruction rate in cycles per second")
	quirks := flag.String("quirks", "", "comma separated quirks: shift, exclusive, inci")
	hold := flag.Duration("hold", 150*time.Millisecond, "how long a key stays down after a press")
	debug := flag.Bool("debug", false, "enable debug logging")
	quiet := flag.Bool("quiet", true, "only log errors")
	flag.Parse()

	logger := utils.CreateLogger(*debug, *quiet)
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: console [flags] <program.ch8|program.asm>")
		flag.Usage()
		os.Exit(2)
	}

	q, err := cpu.ParseQuirks(*quirks)
	if err != nil {
		logger.Fatal("Invalid quirks", log.Err(err))
	}

	fullPath, baseDir, err := utils.GetPathInfo(flag.Arg(0))
	if err != nil {
		logger.Fatal("Invalid program path", log.Err(err))
	}
	logger.Debug("Loading program", log.String("file", fullPath), log.String("dir", baseDir))

	program, err := utils.LoadProgram(fullPath)
	if err != nil {
		logger.Fatal("Loading program failed", log.Err(err))
	}

	// The status line is the only fault report; the CPU gets no logger.
	keypad := peripherals.NewKeypad(nil)
	vm := cpu.NewCPU(cpu.WithQuirks(q), cpu.WithKeypad(keypad))
	if err := vm.Load(program); err != nil {
		logger.Fatal("Loading program failed", log.Err(err))
	}

	if ok, err := fitsScreen(cpu.ScreenWidth, screenRows+1); err != nil {
		logger.Fatal("Checking terminal failed", log.Err(err))
	} else if !ok {
		logger.Error("Terminal is smaller than the display; output will be clipped")
	}

	rt, err := enableRawMode()
	if err != nil {
		logger.Fatal("Enabling raw mode failed", log.Err(err))
	}

	ctx, cancel := context.WithCancel(app.Context())
	defer cancel()

	screen := newRenderer(os.Stdout)
	m := cpu.NewMachine(vm, *hz, cpu.OnDraw(screen.draw), cpu.OnSound(screen.sound))

	go readKeys(os.Stdin, keypad, *hold, cancel)

	screen.begin()
	screen.status("ESC quits  1234/QWER/ASDF/ZXCV")
	runErr := m.Run(ctx)
	if runErr != nil {
		screen.status(runErr.Error())
	}
	screen.end()

	if err := rt.restore(); err != nil {
		logger.Error("Restoring terminal failed", log.Err(err))
	}
	if runErr != nil {
		fmt.Println(vm.Registers())
		os.Exit(1)
	}
}
