package cpu

import "testing"

// benchLoop fills program memory with body repeated count times followed by
// a jump back to the start, then steps the CPU b.N times.
func benchLoop(b *testing.B, count int, body ...uint16) {
	b.Helper()
	c := NewCPU(WithRandom(func() uint8 { return 0x5A }))
	words := make([]uint16, 0, count*len(body)+1)
	for i := 0; i < count; i++ {
		words = append(words, body...)
	}
	words = append(words, 0x1200)
	loadProgram(c, words...)
	c.I = 0x800

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := c.Step(); err != nil {
			b.Fatalf("step: %v", err)
		}
	}
}

// BenchmarkStep_ALU measures register arithmetic dispatch.
func BenchmarkStep_ALU(b *testing.B) {
	benchLoop(b, 200, 0x7101, 0x8014, 0x8125, 0x8206)
}

// BenchmarkStep_Draw measures sprite drawing with collision detection.
func BenchmarkStep_Draw(b *testing.B) {
	benchLoop(b, 200, 0xA050, 0xD01F, 0x7003)
}

// BenchmarkStep_Memory measures BCD and block register transfers.
func BenchmarkStep_Memory(b *testing.B) {
	benchLoop(b, 200, 0xA800, 0xF033, 0xFF55, 0xFF65)
}

func BenchmarkDecode(b *testing.B) {
	words := make([]uint16, 0, len(sampleWords))
	for _, w := range sampleWords {
		words = append(words, w)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(words[i%len(words)], ProgramStart); err != nil {
			b.Fatal(err)
		}
	}
}
