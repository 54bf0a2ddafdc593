//go:build !js

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"

	"gochip8/pkg/asm"
	"gochip8/pkg/cpu"
	"gochip8/pkg/disasm"
	"gochip8/pkg/peripherals"
	"gochip8/pkg/utils"
)

// runConfig carries the flags that shape a headless run.
type runConfig struct {
	hz         int
	quirks     cpu.Quirks
	cycles     int
	duration   time.Duration
	screenshot string
	scale      int
	trace      bool
}

func main() {
	inPath := flag.String("in", "", "input assembly file path")
	outPath := flag.String("out", "", "output binary file path (default: input with .ch8 extension)")
	runProgram := flag.Bool("run", false, "run the assembled program")
	runBinPath := flag.String("run-bin", "", "run an existing program image")
	disasmPath := flag.String("disasm", "", "print a disassembly listing of a program image")
	hz := flag.Int("hz", cpu.DefaultHz, "instruction rate in cycles per second")
	quirks := flag.String("quirks", "", "comma separated quirks: shift, exclusive, inci")
	cycles := flag.Int("cycles", 0, "run this many cycles unpaced instead of at -hz")
	duration := flag.Duration("duration", 0, "stop a paced run after this long (0 runs until halt or interrupt)")
	screenshot := flag.String("screenshot", "", "write the final display to this PNG file")
	scale := flag.Int("scale", 8, "screenshot scale factor")
	trace := flag.Bool("trace", false, "log every executed instruction (implies -debug)")
	debug := flag.Bool("debug", false, "enable debug logging")
	quiet := flag.Bool("quiet", false, "only log errors")
	flag.Parse()

	logger := utils.CreateLogger(*debug || *trace, *quiet)

	if *runProgram && *runBinPath != "" {
		fmt.Fprintln(os.Stderr, "use either -run or -run-bin, not both")
		os.Exit(2)
	}

	q, err := cpu.ParseQuirks(*quirks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -quirks: %v\n", err)
		os.Exit(2)
	}

	assembledOutput := ""
	if *inPath != "" {
		output := *outPath
		if output == "" {
			output = defaultOutputPath(*inPath)
		}
		size, err := assembleFile(*inPath, output)
		if err != nil {
			logger.Fatal("Assembling failed", log.String("file", *inPath), log.Err(err))
		}
		logger.Info("Assembled program", log.String("output", output), log.Int("bytes", size))
		assembledOutput = output
	}

	if *disasmPath != "" {
		if err := disassembleFile(os.Stdout, *disasmPath); err != nil {
			logger.Fatal("Disassembling failed", log.String("file", *disasmPath), log.Err(err))
		}
	}

	if *inPath == "" && *runBinPath == "" && !*runProgram && *disasmPath == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in to assemble, -run to run assembled output, -run-bin <file> to run an existing image, or -disasm <file>")
		flag.Usage()
		os.Exit(2)
	}

	runTarget := ""
	switch {
	case *runBinPath != "":
		runTarget = *runBinPath
	case *runProgram:
		if assembledOutput == "" {
			fmt.Fprintln(os.Stderr, "-run requires -in, or use -run-bin <file>")
			os.Exit(2)
		}
		runTarget = assembledOutput
	default:
		return
	}

	cfg := runConfig{
		hz:         *hz,
		quirks:     q,
		cycles:     *cycles,
		duration:   *duration,
		screenshot: *screenshot,
		scale:      *scale,
		trace:      *trace,
	}

	c, err := runBinary(app.Context(), logger, runTarget, cfg)
	if c != nil {
		fmt.Println(c.Registers())
	}
	if err != nil {
		reportRunError(logger, runTarget, err)
		os.Exit(1)
	}
}

// reportRunError logs a failed run. Faults are skipped since the CPU logs
// them when it halts.
func reportRunError(logger *log.Logger, path string, err error) {
	var fault *cpu.Fault
	if errors.As(err, &fault) {
		return
	}
	logger.Error("Run failed", log.String("file", path), log.Err(err))
}

func defaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	if ext == "" {
		return inPath + ".ch8"
	}
	return strings.TrimSuffix(inPath, ext) + ".ch8"
}

func assembleFile(inPath, outPath string) (int, error) {
	fullPath, _, err := utils.GetPathInfo(inPath)
	if err != nil {
		return 0, err
	}
	source, err := os.ReadFile(fullPath)
	if err != nil {
		return 0, fmt.Errorf("reading source: %w", err)
	}
	code, _, err := asm.Assemble(string(source))
	if err != nil {
		return 0, err
	}
	if err := writeBinary(outPath, code); err != nil {
		return 0, fmt.Errorf("writing program: %w", err)
	}
	return len(code), nil
}

func disassembleFile(w io.Writer, path string) error {
	rom, err := readBinary(path)
	if err != nil {
		return err
	}
	if len(rom) > cpu.MaxProgramSize {
		return fmt.Errorf("%w: %d bytes > %d bytes", cpu.ErrProgramTooLarge, len(rom), cpu.MaxProgramSize)
	}
	return disasm.Listing(w, rom, cpu.ProgramStart)
}

func writeBinary(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

func readBinary(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// runBinary loads the program image at path and runs it headless. With
// cfg.cycles set it steps unpaced; otherwise a Machine paces it at cfg.hz
// until it halts, ctx is cancelled or cfg.duration elapses. The CPU is
// returned whenever the program was loaded, so the caller can report its
// final state.
func runBinary(ctx context.Context, logger *log.Logger, path string, cfg runConfig) (*cpu.CPU, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening program: %w", err)
	}
	defer func() { _ = f.Close() }()

	c := cpu.NewCPU(
		cpu.WithQuirks(cfg.quirks),
		cpu.WithKeypad(peripherals.NewKeypad(nil)),
		cpu.WithLogger(logger),
		cpu.WithTrace(cfg.trace),
	)
	if err := c.LoadFrom(f); err != nil {
		return nil, err
	}
	logger.Debug("Loaded program", log.String("file", path), log.String("quirks", cfg.quirks.String()))

	if cfg.cycles > 0 {
		err = c.RunCycles(cfg.cycles)
	} else {
		if cfg.duration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.duration)
			defer cancel()
		}
		m := cpu.NewMachine(c, cfg.hz, cpu.OnSound(func(active bool) {
			logger.Debug("Sound", log.String("active", strconv.FormatBool(active)))
		}))
		err = m.Run(ctx)
	}

	if cfg.screenshot != "" {
		if serr := c.Display.SaveScreenshot(cfg.screenshot, cfg.scale); serr != nil {
			if err == nil {
				return c, serr
			}
			logger.Error("Saving screenshot failed", log.String("file", cfg.screenshot), log.Err(serr))
			return c, err
		}
		logger.Info("Saved screenshot", log.String("file", cfg.screenshot))
	}
	return c, err
}
