package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gochip8/pkg/asm"
)

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// IsAssemblySource reports whether path names assembly source rather than
// a program image.
func IsAssemblySource(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".asm", ".s":
		return true
	}
	return false
}

// LoadProgram reads a program image, assembling it first when the file is
// assembly source.
func LoadProgram(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading program: %w", err)
	}
	if !IsAssemblySource(path) {
		return data, nil
	}
	code, _, err := asm.Assemble(string(data))
	if err != nil {
		return nil, fmt.Errorf("assembling program: %w", err)
	}
	return code, nil
}
