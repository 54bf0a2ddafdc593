package cpu

// execute applies a decoded instruction. PC already points past it. Bounds
// are checked before anything is written, so a faulting instruction leaves
// the machine unchanged. VF is always written last.
func (c *CPU) execute(in Instruction, keys KeyState) error {
	x, y := in.X, in.Y

	switch in.Op {
	case OpCLS:
		c.Display.Clear()

	case OpRET:
		if c.SP == 0 {
			return newFault(ErrStackUnderflow, in)
		}
		c.SP--
		c.PC = c.Stack[c.SP]

	case OpJP:
		c.PC = in.NNN

	case OpCALL:
		if int(c.SP) >= StackDepth {
			return newFault(ErrStackOverflow, in)
		}
		c.Stack[c.SP] = c.PC
		c.SP++
		c.PC = in.NNN

	case OpSEImm:
		c.skipIf(c.V[x] == in.KK)
	case OpSNEImm:
		c.skipIf(c.V[x] != in.KK)
	case OpSEReg:
		c.skipIf(c.V[x] == c.V[y])
	case OpSNEReg:
		c.skipIf(c.V[x] != c.V[y])

	case OpLDImm:
		c.V[x] = in.KK
	case OpADDImm:
		c.V[x] += in.KK

	case OpLDReg:
		c.V[x] = c.V[y]
	case OpOR:
		c.V[x] |= c.V[y]
	case OpAND:
		c.V[x] &= c.V[y]
	case OpXOR:
		c.V[x] ^= c.V[y]

	case OpADDReg:
		sum := uint16(c.V[x]) + uint16(c.V[y])
		c.V[x] = uint8(sum)
		c.V[0xF] = flag(sum > 0xFF)

	case OpSUB:
		vx, vy := c.V[x], c.V[y]
		c.V[x] = vx - vy
		c.V[0xF] = flag(vx >= vy)

	case OpSUBN:
		vx, vy := c.V[x], c.V[y]
		c.V[x] = vy - vx
		c.V[0xF] = flag(vy >= vx)

	case OpSHR:
		v := c.shiftSource(in)
		c.V[x] = v >> 1
		c.V[0xF] = v & 0x01

	case OpSHL:
		v := c.shiftSource(in)
		c.V[x] = v << 1
		c.V[0xF] = v >> 7

	case OpLDI:
		c.I = in.NNN

	case OpJPV0:
		c.PC = in.NNN + uint16(c.V[0])

	case OpRND:
		c.V[x] = c.random() & in.KK

	case OpDRW:
		n := int(in.N)
		if !inRange(int(c.I), n) {
			return memoryFault(in, int(c.I))
		}
		sprite := c.Memory[c.I : int(c.I)+n]
		collision := c.Display.DrawSprite(sprite, int(c.V[x]%ScreenWidth), int(c.V[y]%ScreenHeight))
		c.V[0xF] = flag(collision)

	case OpSKP:
		c.skipIf(keys[c.V[x]&0x0F])
	case OpSKNP:
		c.skipIf(!keys[c.V[x]&0x0F])

	case OpLDVxDT:
		c.V[x] = c.Timers.Delay()
	case OpLDVxK:
		c.beginKeyWait(x)
	case OpLDDTVx:
		c.Timers.SetDelay(c.V[x])
	case OpLDSTVx:
		c.Timers.SetSound(c.V[x])

	case OpADDI:
		c.I += uint16(c.V[x])

	case OpLDF:
		c.I = GlyphAddr(c.V[x])

	case OpLDB:
		if !writable(int(c.I), 3) {
			return memoryFault(in, int(c.I))
		}
		v := c.V[x]
		c.Memory[c.I] = v / 100
		c.Memory[c.I+1] = v / 10 % 10
		c.Memory[c.I+2] = v % 10

	case OpStore:
		n := c.transferCount(x)
		if !writable(int(c.I), n) {
			return memoryFault(in, int(c.I))
		}
		copy(c.Memory[c.I:], c.V[:n])
		c.advanceI(n)

	case OpLoad:
		n := c.transferCount(x)
		if !inRange(int(c.I), n) {
			return memoryFault(in, int(c.I))
		}
		copy(c.V[:n], c.Memory[c.I:int(c.I)+n])
		c.advanceI(n)

	default:
		return newFault(ErrInvalidOpcode, in)
	}
	return nil
}

func (c *CPU) skipIf(cond bool) {
	if cond {
		c.PC += 2
	}
}

func (c *CPU) shiftSource(in Instruction) uint8 {
	if c.Quirks.ShiftUsesVY {
		return c.V[in.Y]
	}
	return c.V[in.X]
}

// transferCount is the number of registers Fx55/Fx65 move.
func (c *CPU) transferCount(x uint8) int {
	if c.Quirks.LoadStoreExclusive {
		return int(x)
	}
	return int(x) + 1
}

func (c *CPU) advanceI(n int) {
	if c.Quirks.LoadStoreIncrementsI {
		c.I += uint16(n)
	}
}

func flag(set bool) uint8 {
	if set {
		return 1
	}
	return 0
}
