package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"
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

// ReadSource reads a UTF-8 text file. It returns the contents and the
// file's directory, which is the base for relative includes.
func ReadSource(path string) (src string, dir string, err error) {
	full, dir, err := GetPathInfo(path)
	if err != nil {
		return "", "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", "", err
	}
	if !utf8.Valid(data) {
		return "", "", fmt.Errorf("%s: file is not valid UTF-8", path)
	}
	return string(data), dir, nil
}
