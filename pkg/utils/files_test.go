package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestGetPathInfo(t *testing.T) {
	fullPath, parentDir, err := GetPathInfo("roms/../roms/pong.ch8")
	assert.NoError(t, err)
	assert.True(t, filepath.IsAbs(fullPath))
	assert.Equal(t, "pong.ch8", filepath.Base(fullPath))
	assert.Equal(t, "roms", filepath.Base(parentDir))
	assert.Equal(t, parentDir, filepath.Dir(fullPath))
}

func TestCreateLogger(t *testing.T) {
	assert.NotNil(t, CreateLogger(false, false))
	assert.NotNil(t, CreateLogger(true, false))
	assert.NotNil(t, CreateLogger(false, true))
}

func TestLoadProgram(t *testing.T) {
	dir := t.TempDir()

	src := filepath.Join(dir, "prog.asm")
	assert.NoError(t, os.WriteFile(src, []byte("CLS\nJP 0x200\n"), 0o644))
	code, err := LoadProgram(src)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xE0, 0x12, 0x00}, code)

	bin := filepath.Join(dir, "prog.ch8")
	assert.NoError(t, os.WriteFile(bin, []byte{0x12, 0x00}, 0o644))
	code, err = LoadProgram(bin)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x00}, code)

	bad := filepath.Join(dir, "bad.S")
	assert.NoError(t, os.WriteFile(bad, []byte("NOPE\n"), 0o644))
	_, err = LoadProgram(bad)
	assert.ErrorContains(t, err, "assembling program")

	_, err = LoadProgram(filepath.Join(dir, "missing.ch8"))
	assert.Error(t, err)
}
