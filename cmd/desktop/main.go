package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"

	"gochip8/pkg/cpu"
	"gochip8/pkg/peripherals"
	"gochip8/pkg/utils"
)

const framesPerSecond = 60

// keyTable binds physical keys to the hex keypad in the 1234/QWER/ASDF/ZXCV
// layout.
var keyTable = map[ebiten.Key]uint8{
	ebiten.KeyDigit1: 0x1, ebiten.KeyDigit2: 0x2, ebiten.KeyDigit3: 0x3, ebiten.KeyDigit4: 0xC,
	ebiten.KeyQ: 0x4, ebiten.KeyW: 0x5, ebiten.KeyE: 0x6, ebiten.KeyR: 0xD,
	ebiten.KeyA: 0x7, ebiten.KeyS: 0x8, ebiten.KeyD: 0x9, ebiten.KeyF: 0xE,
	ebiten.KeyZ: 0xA, ebiten.KeyX: 0x0, ebiten.KeyC: 0xB, ebiten.KeyV: 0xF,
}

type Game struct {
	vm     *cpu.CPU
	keypad *peripherals.Keypad
	logger *log.Logger

	cyclesPerFrame int
	scale          int
	paused         bool
	shotDir        string

	screenImg *ebiten.Image // reused 64x32 canvas
}

func newGame(vm *cpu.CPU, keypad *peripherals.Keypad, logger *log.Logger, hz, scale int) *Game {
	perFrame := hz / framesPerSecond
	if perFrame < 1 {
		perFrame = 1
	}
	return &Game{
		vm:             vm,
		keypad:         keypad,
		logger:         logger,
		cyclesPerFrame: perFrame,
		scale:          scale,
	}
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		g.saveScreenshot()
	}

	for key, k := range keyTable {
		g.keypad.Set(k, ebiten.IsKeyPressed(key))
	}

	if g.paused {
		return nil
	}
	g.runFrame()
	return nil
}

// runFrame executes one frame's worth of cycles. A waiting CPU only polls
// the keypad, so the loop stops early once it starts waiting.
func (g *Game) runFrame() {
	for i := 0; i < g.cyclesPerFrame; i++ {
		if g.vm.Halted {
			return
		}
		if err := g.vm.Step(); err != nil {
			return
		}
		if g.vm.Waiting {
			return
		}
	}
}

func (g *Game) saveScreenshot() {
	name := filepath.Join(g.shotDir, fmt.Sprintf("chip8-%s.png", time.Now().Format("20060102-150405")))
	if err := g.vm.Display.SaveScreenshot(name, g.scale); err != nil {
		g.logger.Error("Saving screenshot failed", log.Err(err))
		return
	}
	g.logger.Info("Saved screenshot", log.String("file", name))
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.screenImg == nil {
		g.screenImg = ebiten.NewImage(cpu.ScreenWidth, cpu.ScreenHeight)
	}

	if g.vm.Display.Dirty() {
		g.screenImg.WritePixels(g.vm.Display.RGBA(cpu.PixelOn, cpu.PixelOff))
		g.vm.Display.ClearDirty()
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(g.scale), float64(g.scale))
	screen.DrawImage(g.screenImg, op)

	switch {
	case g.vm.Halted:
		ebitenutil.DebugPrint(screen, "HALTED: "+g.vm.Fault.Error())
	case g.paused:
		ebitenutil.DebugPrint(screen, "PAUSED")
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return cpu.ScreenWidth * g.scale, cpu.ScreenHeight * g.scale
}

func main() {
	hz := flag.Int("hz", cpu.DefaultHz, "instruction rate in cycles per second")
	scale := flag.Int("scale", 10, "window scale factor")
	quirks := flag.String("quirks", "", "comma separated quirks: shift, exclusive, inci")
	debug := flag.Bool("debug", false, "enable debug logging")
	quiet := flag.Bool("quiet", false, "only log errors")
	flag.Parse()

	logger := utils.CreateLogger(*debug, *quiet)
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: desktop [flags] <program.ch8|program.asm>")
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
	program, err := utils.LoadProgram(fullPath)
	if err != nil {
		logger.Fatal("Loading program failed", log.Err(err))
	}

	keypad := peripherals.NewKeypad(nil)
	vm := cpu.NewCPU(cpu.WithQuirks(q), cpu.WithKeypad(keypad), cpu.WithLogger(logger))
	if err := vm.Load(program); err != nil {
		logger.Fatal("Loading program failed", log.Err(err))
	}

	ctx := app.Context()
	ticker := cpu.NewTimerTicker(vm.Timers, nil)

	tone := peripherals.NewTone(peripherals.DefaultSampleRate, peripherals.DefaultToneHz)
	audioCtx := audio.NewContext(peripherals.DefaultSampleRate)
	player, err := audioCtx.NewPlayer(tone)
	if err != nil {
		logger.Error("Audio unavailable", log.Err(err))
	} else {
		player.SetBufferSize(50 * time.Millisecond)
		player.Play()
		ticker.OnSound(tone.SetActive)
	}

	ticker.Start(ctx)
	defer ticker.Stop()

	game := newGame(vm, keypad, logger, *hz, *scale)
	game.shotDir = baseDir

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cpu.ScreenWidth*game.scale, cpu.ScreenHeight*game.scale)
	ebiten.SetWindowTitle("gochip8 - " + filepath.Base(fullPath))
	ebiten.SetTPS(framesPerSecond)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.Fatal("Running game failed", log.Err(err))
	}
}
