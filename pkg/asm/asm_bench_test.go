package asm

import (
	"fmt"
	"strings"
	"testing"
)

// smallProgram is a short counter loop.
const smallProgram = `
    LD V0, 10
    LD V1, 0
loop:
    ADD V1, 1
    ADD V0, 0xFF
    SE V0, 0
    JP loop
done:
    JP done
`

// mediumProgram bounces a sprite around the screen with subroutines,
// key polling and the timers.
const mediumProgram = `
    JP main

draw_ball:
    LD I, ball
    DRW V0, V1, 4
    RET

move:
    ADD V0, V2
    ADD V1, V3
    SNE V0, 60
    LD V2, 0xFF
    SNE V0, 0
    LD V2, 1
    SNE V1, 28
    LD V3, 0xFF
    SNE V1, 0
    LD V3, 1
    RET

wait:
    LD V4, DT
    SE V4, 0
    JP wait
    RET

main:
    CLS
    LD V0, 10
    LD V1, 5
    LD V2, 1
    LD V3, 1
frame:
    CALL draw_ball
    LD V5, 2
    LD DT, V5
    CALL wait
    CALL draw_ball
    CALL move
    LD V6, 5
    SKNP V6
    JP quit
    SE VF, 0
    LD ST, V5
    JP frame
quit:
    LD V7, K
    LD F, V7
    LD V8, 0
    LD V9, 0
    DRW V8, V9, 5
    LD I, score
    LD B, V7
    LD V2, [I]
halt:
    JP halt

ball:
    .BYTE 0x60, 0xF0, 0xF0, 0x60
score:
    .BYTE 0, 0, 0
`

// largeProgram repeats a block of arithmetic, memory and drawing work with
// distinct labels per block.
var largeProgram = buildLargeProgram(24)

func buildLargeProgram(blocks int) string {
	var b strings.Builder
	b.WriteString("    JP start\n")
	for i := 0; i < blocks; i++ {
		fmt.Fprintf(&b, `
block_%[1]d:
    LD V0, %[1]d
    LD V1, 0x10
    ADD V0, V1
    SUB V1, V0
    SUBN V2, V1
    OR V3, V0
    AND V4, V1
    XOR V5, V2
    SHR V6, V6
    SHL V7, V7
    RND V8, 0x3F
    LD I, data_%[1]d
    LD [I], V3
    LD V3, [I]
    ADD I, V0
    DRW V0, V1, 3
    SE VF, 1
    JP skip_%[1]d
    CLS
skip_%[1]d:
    RET
data_%[1]d:
    .BYTE 1, 2, 3, 4
`, i)
	}
	b.WriteString("start:\n")
	for i := 0; i < blocks; i++ {
		fmt.Fprintf(&b, "    CALL block_%d\n", i)
	}
	b.WriteString("end:\n    JP end\n")
	return b.String()
}

func BenchmarkAssemble_Small(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, err := Assemble(smallProgram)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAssemble_Medium(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, err := Assemble(mediumProgram)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAssemble_Large(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, err := Assemble(largeProgram)
		if err != nil {
			b.Fatal(err)
		}
	}
}
