package cpu

const (
	MemorySize     = 4096
	ProgramStart   = 0x200
	MaxProgramSize = MemorySize - ProgramStart

	// FontBase is where the hex digit glyphs live. Each glyph is 5 bytes.
	FontBase      = 0x050
	GlyphHeight   = 5
	fontTableSize = 16 * GlyphHeight
)

// fontGlyphs holds the 4x5 sprites for the hex digits 0-F.
var fontGlyphs = [fontTableSize]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Memory is the flat 4 KB address space.
type Memory [MemorySize]byte

func newMemory() Memory {
	var m Memory
	copy(m[FontBase:], fontGlyphs[:])
	return m
}

// GlyphAddr returns the address of the glyph for the low nibble of digit.
func GlyphAddr(digit uint8) uint16 {
	return FontBase + GlyphHeight*uint16(digit&0x0F)
}

// inRange reports whether the n bytes starting at addr are addressable.
func inRange(addr, n int) bool {
	return addr >= 0 && n >= 0 && addr+n <= MemorySize
}

// writable reports whether the n bytes starting at addr may be stored to.
// The glyph table is read-only.
func writable(addr, n int) bool {
	if !inRange(addr, n) {
		return false
	}
	if n == 0 {
		return true
	}
	end := addr + n
	return end <= FontBase || addr >= FontBase+fontTableSize
}

// Read16 returns the big-endian word at addr and addr+1.
func (m *Memory) Read16(addr uint16) (uint16, bool) {
	if !inRange(int(addr), 2) {
		return 0, false
	}
	return uint16(m[addr])<<8 | uint16(m[addr+1]), true
}
