// Package disasm renders instruction words as assembly text using the
// retrogolib CHIP-8 opcode tables.
package disasm

import (
	"fmt"
	"io"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Lookup returns the opcode table entry matching word.
func Lookup(word uint16) (chip8.Opcode, bool) {
	word = canonical(word)
	if word>>12 == 0 && word != 0x00E0 && word != 0x00EE {
		return chip8.Opcode{}, false // machine code calls are not executed
	}
	for _, op := range chip8.Opcodes[int(word>>12)] {
		if op.Info.Mask&word == op.Info.Value {
			return op, op.Instruction != nil
		}
	}
	return chip8.Opcode{}, false
}

// canonical maps encodings the engine accepts through don't-care bits onto
// the form the opcode tables list.
func canonical(word uint16) uint16 {
	if f := word >> 12; f == 0x5 || f == 0x9 {
		return word &^ 0x000F
	}
	return word
}

// Format disassembles a single instruction word. Words that are not
// instructions are rendered as a .word directive.
func Format(word uint16) string {
	op, ok := Lookup(word)
	if !ok {
		return fmt.Sprintf(".word $%04X", word)
	}

	name := op.Instruction.Name
	if params := formatParams(name, canonical(word)); params != "" {
		return name + " " + params
	}
	return name
}

func formatParams(name string, opcode uint16) string {
	x := extractRegisterX(opcode)
	y := extractRegisterY(opcode)
	kk := opcode & 0x00FF
	nnn := opcode & 0x0FFF

	switch name {
	case chip8.Cls.Name, chip8.Ret.Name:
		return ""
	case chip8.Jp.Name:
		if opcode&0xF000 == 0xB000 {
			return fmt.Sprintf("V0, $%03X", nnn)
		}
		return fmt.Sprintf("$%03X", nnn)
	case chip8.Call.Name:
		return fmt.Sprintf("$%03X", nnn)
	case chip8.Se.Name, chip8.Sne.Name:
		if opcode&0xF000 == 0x3000 || opcode&0xF000 == 0x4000 {
			return fmt.Sprintf("V%X, $%02X", x, kk)
		}
		return fmt.Sprintf("V%X, V%X", x, y)
	case chip8.Ld.Name:
		return formatLoad(opcode, x, y)
	case chip8.Add.Name:
		switch opcode & 0xF000 {
		case 0x7000:
			return fmt.Sprintf("V%X, $%02X", x, kk)
		case 0xF000:
			return fmt.Sprintf("I, V%X", x)
		}
		return fmt.Sprintf("V%X, V%X", x, y)
	case chip8.Or.Name, chip8.And.Name, chip8.Xor.Name, chip8.Sub.Name, chip8.Subn.Name:
		return fmt.Sprintf("V%X, V%X", x, y)
	case chip8.Shr.Name, chip8.Shl.Name, chip8.Skp.Name, chip8.Sknp.Name:
		return fmt.Sprintf("V%X", x)
	case chip8.Rnd.Name:
		return fmt.Sprintf("V%X, $%02X", x, kk)
	case chip8.Drw.Name:
		return fmt.Sprintf("V%X, V%X, $%X", x, y, opcode&0x000F)
	}
	return ""
}

func formatLoad(opcode, x, y uint16) string {
	switch opcode & 0xF000 {
	case 0x6000:
		return fmt.Sprintf("V%X, $%02X", x, opcode&0x00FF)
	case 0x8000:
		return fmt.Sprintf("V%X, V%X", x, y)
	case 0xA000:
		return fmt.Sprintf("I, $%03X", opcode&0x0FFF)
	}

	switch opcode & 0x00FF {
	case 0x07:
		return fmt.Sprintf("V%X, DT", x)
	case 0x0A:
		return fmt.Sprintf("V%X, K", x)
	case 0x15:
		return fmt.Sprintf("DT, V%X", x)
	case 0x18:
		return fmt.Sprintf("ST, V%X", x)
	case 0x29:
		return fmt.Sprintf("F, V%X", x)
	case 0x33:
		return fmt.Sprintf("B, V%X", x)
	case 0x55:
		return fmt.Sprintf("[I], V%X", x)
	case 0x65:
		return fmt.Sprintf("V%X, [I]", x)
	}
	return ""
}

func extractRegisterX(opcode uint16) uint16 {
	return (opcode & 0x0F00) >> 8
}

func extractRegisterY(opcode uint16) uint16 {
	return (opcode & 0x00F0) >> 4
}

// Listing writes one line per instruction word of rom, addressed from
// origin. A trailing odd byte is emitted as a .byte directive.
func Listing(w io.Writer, rom []byte, origin uint16) error {
	for i := 0; i+1 < len(rom); i += 2 {
		word := uint16(rom[i])<<8 | uint16(rom[i+1])
		if _, err := fmt.Fprintf(w, "%03X: %04X  %s\n", int(origin)+i, word, Format(word)); err != nil {
			return fmt.Errorf("writing listing: %w", err)
		}
	}
	if len(rom)%2 == 1 {
		last := len(rom) - 1
		if _, err := fmt.Fprintf(w, "%03X: %02X    .byte $%02X\n", int(origin)+last, rom[last], rom[last]); err != nil {
			return fmt.Errorf("writing listing: %w", err)
		}
	}
	return nil
}
