package asm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"gochip8/pkg/cpu"
)

// register-register ALU ops, keyed by mnemonic, valued by the low nibble
var aluOps = map[string]uint16{
	"OR":   0x1,
	"AND":  0x2,
	"XOR":  0x3,
	"SUB":  0x5,
	"SUBN": 0x7,
}

var shiftOps = map[string]uint16{
	"SHR": 0x6,
	"SHL": 0xE,
}

// LD forms whose first operand is a special register and whose second is Vx
var loadFromRegister = map[string]uint16{
	"DT": 0x15,
	"ST": 0x18,
	"F":  0x29,
	"B":  0x33,
	"I":  0x55, // LD [I], Vx
}

// LD Vx forms whose second operand is a special register
var loadIntoRegister = map[string]uint16{
	"DT": 0x07,
	"K":  0x0A,
	"I":  0x65, // LD Vx, [I]
}

var mnemonics = map[string]bool{
	"CLS": true, "RET": true, "JP": true, "CALL": true, "SE": true, "SNE": true,
	"LD": true, "ADD": true, "OR": true, "AND": true, "XOR": true, "SUB": true,
	"SUBN": true, "SHR": true, "SHL": true, "RND": true, "DRW": true,
	"SKP": true, "SKNP": true,
}

type Assembler struct {
	labels map[string]uint16
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands []string
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels: make(map[string]uint16),
	}
}

// Assemble translates source into a program image that loads at
// cpu.ProgramStart. The source map is keyed by absolute address.
func Assemble(code string) ([]byte, map[uint16]int, error) {
	return NewAssembler().Assemble(code)
}

func (a *Assembler) Assemble(code string) ([]byte, map[uint16]int, error) {
	lines := strings.Split(code, "\n")

	if err := a.pass1(lines); err != nil {
		return nil, nil, err
	}

	return a.pass2(lines)
}

func (a *Assembler) pass1(lines []string) error {
	address := uint32(cpu.ProgramStart)

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return err
		}

		for _, lbl := range p.labels {
			key := normalizeLabel(lbl)
			if _, exists := a.labels[key]; exists {
				return fmt.Errorf("duplicate label '%s' on line %d", lbl, lineNo)
			}
			a.labels[key] = uint16(address)
		}

		if p.mnemonic == "" {
			continue
		}

		var length uint32
		switch p.mnemonic {
		case ".ORG":
			target, err := parseOrigin(p.operands, address, lineNo)
			if err != nil {
				return err
			}
			address = target
			continue
		case ".BYTE":
			if len(p.operands) == 0 {
				return fmt.Errorf(".BYTE expects at least one operand on line %d", lineNo)
			}
			length = uint32(len(p.operands))
		case ".WORD":
			if len(p.operands) == 0 {
				return fmt.Errorf(".WORD expects at least one operand on line %d", lineNo)
			}
			length = 2 * uint32(len(p.operands))
		default:
			n, ok := instructionLength(p.mnemonic)
			if !ok {
				return fmt.Errorf("unknown instruction on line %d: %s", lineNo, p.mnemonic)
			}
			length = uint32(n)
		}

		if address+length > cpu.MemorySize {
			return fmt.Errorf("program too large near line %d", lineNo)
		}
		address += length
	}

	return nil
}

func (a *Assembler) pass2(lines []string) ([]byte, map[uint16]int, error) {
	program := make([]byte, 0)
	sourceMap := make(map[uint16]int)
	addr := func() uint32 { return uint32(cpu.ProgramStart + len(program)) }

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, nil, err
		}

		if p.mnemonic == "" {
			continue
		}

		ops := p.operands

		switch p.mnemonic {
		case ".ORG":
			target, err := parseOrigin(ops, addr(), lineNo)
			if err != nil {
				return nil, nil, err
			}
			program = append(program, make([]byte, target-addr())...)
			continue

		case ".BYTE":
			sourceMap[uint16(addr())] = lineNo
			for _, op := range ops {
				val, err := a.parseImmediate(op, lineNo)
				if err != nil {
					return nil, nil, err
				}
				if val > 0xFF {
					return nil, nil, fmt.Errorf("byte out of range on line %d: %s", lineNo, op)
				}
				program = append(program, byte(val))
			}
			continue

		case ".WORD":
			sourceMap[uint16(addr())] = lineNo
			for _, op := range ops {
				val, err := a.parseImmediate(op, lineNo)
				if err != nil {
					return nil, nil, err
				}
				program = append(program, byte(val>>8), byte(val))
			}
			continue
		}

		instr, err := a.encode(p.mnemonic, ops, lineNo)
		if err != nil {
			return nil, nil, err
		}
		sourceMap[uint16(addr())] = lineNo
		program = append(program, byte(instr>>8), byte(instr))
	}

	if len(program) > cpu.MaxProgramSize {
		return nil, nil, fmt.Errorf("%w: %d bytes", cpu.ErrProgramTooLarge, len(program))
	}
	return program, sourceMap, nil
}

// encode assembles one instruction into its word.
func (a *Assembler) encode(mnemonic string, ops []string, lineNo int) (uint16, error) {
	expect := func(n int) error {
		if len(ops) != n {
			return fmt.Errorf("%s expects %d operands on line %d", mnemonic, n, lineNo)
		}
		return nil
	}

	if nibble, ok := aluOps[mnemonic]; ok {
		if err := expect(2); err != nil {
			return 0, err
		}
		x, y, err := a.registerPair(ops, lineNo)
		if err != nil {
			return 0, err
		}
		return 0x8000 | x<<8 | y<<4 | nibble, nil
	}

	if nibble, ok := shiftOps[mnemonic]; ok {
		if len(ops) != 1 && len(ops) != 2 {
			return 0, fmt.Errorf("%s expects 1 or 2 operands on line %d", mnemonic, lineNo)
		}
		x, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		var y uint16
		if len(ops) == 2 {
			if y, err = parseRegister(ops[1], lineNo); err != nil {
				return 0, err
			}
		}
		return 0x8000 | x<<8 | y<<4 | nibble, nil
	}

	switch mnemonic {
	case "CLS", "RET":
		if err := expect(0); err != nil {
			return 0, err
		}
		if mnemonic == "CLS" {
			return 0x00E0, nil
		}
		return 0x00EE, nil

	case "JP":
		if len(ops) == 2 {
			if r, err := parseRegister(ops[0], lineNo); err != nil || r != 0 {
				return 0, fmt.Errorf("JP with offset must use V0 on line %d", lineNo)
			}
			nnn, err := a.parseAddress(ops[1], lineNo)
			return 0xB000 | nnn, err
		}
		if err := expect(1); err != nil {
			return 0, err
		}
		nnn, err := a.parseAddress(ops[0], lineNo)
		return 0x1000 | nnn, err

	case "CALL":
		if err := expect(1); err != nil {
			return 0, err
		}
		nnn, err := a.parseAddress(ops[0], lineNo)
		return 0x2000 | nnn, err

	case "SE", "SNE":
		if err := expect(2); err != nil {
			return 0, err
		}
		x, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		if isRegister(ops[1]) {
			y, _ := parseRegister(ops[1], lineNo)
			base := uint16(0x5000)
			if mnemonic == "SNE" {
				base = 0x9000
			}
			return base | x<<8 | y<<4, nil
		}
		kk, err := a.parseByte(ops[1], lineNo)
		base := uint16(0x3000)
		if mnemonic == "SNE" {
			base = 0x4000
		}
		return base | x<<8 | kk, err

	case "LD":
		if err := expect(2); err != nil {
			return 0, err
		}
		return a.encodeLoad(ops, lineNo)

	case "ADD":
		if err := expect(2); err != nil {
			return 0, err
		}
		if strings.EqualFold(ops[0], "I") {
			x, err := parseRegister(ops[1], lineNo)
			return 0xF01E | x<<8, err
		}
		x, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		if isRegister(ops[1]) {
			y, _ := parseRegister(ops[1], lineNo)
			return 0x8004 | x<<8 | y<<4, nil
		}
		kk, err := a.parseByte(ops[1], lineNo)
		return 0x7000 | x<<8 | kk, err

	case "RND":
		if err := expect(2); err != nil {
			return 0, err
		}
		x, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return 0, err
		}
		kk, err := a.parseByte(ops[1], lineNo)
		return 0xC000 | x<<8 | kk, err

	case "DRW":
		if err := expect(3); err != nil {
			return 0, err
		}
		x, y, err := a.registerPair(ops, lineNo)
		if err != nil {
			return 0, err
		}
		n, err := a.parseImmediate(ops[2], lineNo)
		if err != nil {
			return 0, err
		}
		if n > 0xF {
			return 0, fmt.Errorf("sprite height out of range on line %d: %s", lineNo, ops[2])
		}
		return 0xD000 | x<<8 | y<<4 | n, nil

	case "SKP", "SKNP":
		if err := expect(1); err != nil {
			return 0, err
		}
		x, err := parseRegister(ops[0], lineNo)
		if mnemonic == "SKP" {
			return 0xE09E | x<<8, err
		}
		return 0xE0A1 | x<<8, err
	}

	return 0, fmt.Errorf("unknown instruction on line %d: %s", lineNo, mnemonic)
}

func (a *Assembler) encodeLoad(ops []string, lineNo int) (uint16, error) {
	dst, src := strings.ToUpper(ops[0]), strings.ToUpper(ops[1])

	if isRegister(dst) {
		x, _ := parseRegister(dst, lineNo)
		if isRegister(src) {
			y, _ := parseRegister(src, lineNo)
			return 0x8000 | x<<8 | y<<4, nil
		}
		if low, ok := loadIntoRegister[src]; ok {
			return 0xF000 | x<<8 | low, nil
		}
		kk, err := a.parseByte(ops[1], lineNo)
		return 0x6000 | x<<8 | kk, err
	}

	if low, ok := loadFromRegister[dst]; ok && isRegister(src) {
		x, _ := parseRegister(src, lineNo)
		return 0xF000 | x<<8 | low, nil
	}

	if dst == "I" {
		nnn, err := a.parseAddress(ops[1], lineNo)
		return 0xA000 | nnn, err
	}

	return 0, fmt.Errorf("invalid LD operands on line %d: %s, %s", lineNo, ops[0], ops[1])
}

func (a *Assembler) registerPair(ops []string, lineNo int) (uint16, uint16, error) {
	x, err := parseRegister(ops[0], lineNo)
	if err != nil {
		return 0, 0, err
	}
	y, err := parseRegister(ops[1], lineNo)
	return x, y, err
}

func parseOrigin(ops []string, current uint32, lineNo int) (uint32, error) {
	if len(ops) != 1 {
		return 0, fmt.Errorf(".ORG expects exactly one operand on line %d", lineNo)
	}
	target, err := parseNumber(ops[0])
	if err != nil {
		return 0, fmt.Errorf("invalid .ORG value on line %d: %s", lineNo, ops[0])
	}
	if target < cpu.ProgramStart || target >= cpu.MemorySize {
		return 0, fmt.Errorf(".ORG out of range on line %d: %s", lineNo, ops[0])
	}
	if uint32(target) < current {
		return 0, fmt.Errorf("cannot move origin backward on line %d", lineNo)
	}
	return uint32(target), nil
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return p, nil
	}

	for {
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			break
		}

		beforeColon := strings.TrimSpace(line[:colon])
		if strings.ContainsAny(beforeColon, " \t") {
			break
		}

		if !isIdentifier(beforeColon) {
			return p, fmt.Errorf("invalid label '%s' on line %d", beforeColon, lineNo)
		}

		p.labels = append(p.labels, beforeColon)
		line = strings.TrimSpace(line[colon+1:])
		if line == "" {
			return p, nil
		}
	}

	line = normalizeInstructionText(line)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return p, nil
	}

	p.mnemonic = strings.ToUpper(fields[0])
	if len(fields) > 1 {
		p.operands = fields[1:]
	}

	return p, nil
}

func stripComments(line string) string {
	semicolon := strings.Index(line, ";")
	doubleSlash := strings.Index(line, "//")

	cut := -1
	if semicolon >= 0 {
		cut = semicolon
	}
	if doubleSlash >= 0 && (cut == -1 || doubleSlash < cut) {
		cut = doubleSlash
	}
	if cut >= 0 {
		return line[:cut]
	}
	return line
}

// normalizeInstructionText drops separators, so "LD [I], V3" becomes
// "LD I V3".
func normalizeInstructionText(line string) string {
	replacer := strings.NewReplacer(",", " ", "[", " ", "]", " ")
	return replacer.Replace(line)
}

func isRegister(token string) bool {
	_, err := parseRegister(token, 0)
	return err == nil
}

func parseRegister(token string, lineNo int) (uint16, error) {
	t := strings.ToUpper(token)
	if len(t) == 2 && t[0] == 'V' {
		if v, err := strconv.ParseUint(t[1:], 16, 8); err == nil {
			return uint16(v), nil
		}
	}
	return 0, fmt.Errorf("invalid register '%s' on line %d", token, lineNo)
}

// parseNumber accepts Go integer literals plus $ and # prefixed hex.
func parseNumber(token string) (uint64, error) {
	if strings.HasPrefix(token, "$") || strings.HasPrefix(token, "#") {
		return strconv.ParseUint(token[1:], 16, 32)
	}
	return strconv.ParseUint(token, 0, 32)
}

func (a *Assembler) parseImmediate(token string, lineNo int) (uint16, error) {
	if value, err := parseNumber(token); err == nil {
		if value > 0xFFFF {
			return 0, fmt.Errorf("immediate out of range on line %d: %s", lineNo, token)
		}
		return uint16(value), nil
	}

	label := normalizeLabel(token)
	if addr, ok := a.labels[label]; ok {
		return addr, nil
	}

	if isIdentifier(token) {
		return 0, fmt.Errorf("undefined label '%s' on line %d", token, lineNo)
	}

	return 0, fmt.Errorf("invalid immediate '%s' on line %d", token, lineNo)
}

func (a *Assembler) parseByte(token string, lineNo int) (uint16, error) {
	v, err := a.parseImmediate(token, lineNo)
	if err != nil {
		return 0, err
	}
	if v > 0xFF {
		return 0, fmt.Errorf("byte out of range on line %d: %s", lineNo, token)
	}
	return v, nil
}

func (a *Assembler) parseAddress(token string, lineNo int) (uint16, error) {
	v, err := a.parseImmediate(token, lineNo)
	if err != nil {
		return 0, err
	}
	if v > 0xFFF {
		return 0, fmt.Errorf("address out of range on line %d: %s", lineNo, token)
	}
	return v, nil
}

// instructionLength returns the byte length of an instruction. Every
// instruction is one 16-bit word.
func instructionLength(mnemonic string) (uint16, bool) {
	if mnemonics[strings.ToUpper(mnemonic)] {
		return 2, true
	}
	return 0, false
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	return true
}

func normalizeLabel(label string) string {
	return strings.ToUpper(label)
}
