package disasm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
	"github.com/retroenv/retrogolib/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		word     uint16
		expected string
	}{
		{"clear", 0x00E0, "cls"},
		{"jump", 0x1234, "jp $234"},
		{"call", 0x2300, "call $300"},
		{"skip immediate", 0x3234, "se V2, $34"},
		{"load I", 0xA234, "ld I, $234"},
		{"jump offset", 0xB210, chip8.Jp.Name + " V0, $210"},
		{"skip register", 0x9AB0, chip8.Sne.Name + " VA, VB"},
		{"load immediate", 0x6005, chip8.Ld.Name + " V0, $05"},
		{"add registers", 0x8014, chip8.Add.Name + " V0, V1"},
		{"subn", 0x8127, chip8.Subn.Name + " V1, V2"},
		{"shift", 0x830E, chip8.Shl.Name + " V3"},
		{"random", 0xC70F, chip8.Rnd.Name + " V7, $0F"},
		{"draw", 0xD125, chip8.Drw.Name + " V1, V2, $5"},
		{"key", 0xE59E, chip8.Skp.Name + " V5"},
		{"delay read", 0xF407, chip8.Ld.Name + " V4, DT"},
		{"wait key", 0xF40A, chip8.Ld.Name + " V4, K"},
		{"sound", 0xF418, chip8.Ld.Name + " ST, V4"},
		{"add I", 0xF41E, chip8.Add.Name + " I, V4"},
		{"glyph", 0xF429, chip8.Ld.Name + " F, V4"},
		{"bcd", 0xF433, chip8.Ld.Name + " B, V4"},
		{"store", 0xF455, chip8.Ld.Name + " [I], V4"},
		{"load", 0xF465, chip8.Ld.Name + " V4, [I]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.word))
		})
	}
}

func TestFormatCanonicalisesDontCareBits(t *testing.T) {
	assert.Equal(t, Format(0x5120), Format(0x5121))
	assert.Equal(t, Format(0x9120), Format(0x912F))
}

func TestFormatData(t *testing.T) {
	assert.Equal(t, ".word $0123", Format(0x0123))
	assert.Equal(t, ".word $0AE0", Format(0x0AE0))
	assert.Equal(t, ".word $0FEE", Format(0x0FEE))
	assert.Equal(t, ".word $F0FF", Format(0xF0FF))

	_, ok := Lookup(0x8008)
	assert.False(t, ok)
}

func TestListing(t *testing.T) {
	var buf bytes.Buffer
	rom := []byte{0x60, 0x05, 0x00, 0xE0, 0xAB}
	err := Listing(&buf, rom, 0x200)
	assert.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, 3, len(lines))
	assert.True(t, strings.HasPrefix(lines[0], "200: 6005  "))
	assert.Equal(t, "202: 00E0  cls", lines[1])
	assert.Equal(t, "204: AB    .byte $AB", lines[2])
}
