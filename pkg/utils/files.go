package utils

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const (
	VMExt   = ".vm"
	AsmExt  = ".asm"
	HackExt = ".hack"
)

// ErrNoSources is returned for a directory holding no .vm files.
var ErrNoSources = errors.New("no .vm sources")

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", errors.Wrapf(err, "resolving %s", relPath)
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// DiscoverSources lists the VM files named by path: the file itself for a
// .vm file, or the directory's .vm files sorted by name.
func DiscoverSources(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "locating sources")
	}
	if !info.IsDir() {
		if filepath.Ext(path) != VMExt {
			return nil, errors.Errorf("%s: expected a %s file or a directory", path, VMExt)
		}
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && filepath.Ext(e.Name()) == VMExt {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, errors.Wrapf(ErrNoSources, "%s", path)
	}
	sort.Strings(files)
	return files, nil
}

// OutputPaths derives the assembly and binary paths for a .vm file or a
// program directory. A non-empty outDir replaces the parent directory.
func OutputPaths(path, outDir string) (asmPath, hackPath string, err error) {
	fullPath, parentDir, err := GetPathInfo(path)
	if err != nil {
		return "", "", err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		return "", "", errors.Wrap(err, "deriving output paths")
	}

	dir, stem := parentDir, TrimExt(filepath.Base(fullPath))
	if info.IsDir() {
		dir, stem = fullPath, filepath.Base(fullPath)
	}
	if outDir != "" {
		dir = outDir
	}
	base := filepath.Join(dir, stem)
	return base + AsmExt, base + HackExt, nil
}

// ReplaceExt swaps the extension of path for ext.
func ReplaceExt(path, ext string) string {
	return TrimExt(path) + ext
}

func TrimExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// HasSysInit reports whether any of files is named Sys.vm.
func HasSysInit(files []string) bool {
	for _, f := range files {
		if filepath.Base(f) == "Sys"+VMExt {
			return true
		}
	}
	return false
}
