// Package main contains Mage build targets for tomarkdown developer tooling.
package main

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "tomarkdown"
	cmdPkg  = "./cmd/tomarkdown"
)

// Default is the target run by a bare "mage".
var Default = Build

// Build compiles the CLI binary into bin/. The version is stamped from
// TOMARKDOWN_VERSION when set.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	args := []string{"build", "-o", out}
	if v := os.Getenv("TOMARKDOWN_VERSION"); v != "" {
		args = append(args, "-ldflags", "-X main.version="+v)
	}
	args = append(args, cmdPkg)
	if err := sh.RunV(mg.GoCmd(), args...); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV(mg.GoCmd(), "test", "-race", "./...")
}

// Lint runs go vet over every package.
func Lint() error {
	return sh.RunV(mg.GoCmd(), "vet", "./...")
}

// Check runs Lint and Test.
func Check() {
	mg.SerialDeps(Lint, Test)
}

// Clean removes build output.
func Clean() error {
	return sh.Rm(binDir)
}

// pkgStats holds non-blank Go line counts for one package directory.
type pkgStats struct {
	Dir   string
	Prod  int
	Tests int
}

// Stats prints non-blank Go line counts per package, split into production
// and test code.
func Stats() error {
	stats, err := collectStats(".")
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PACKAGE\tPROD\tTEST")
	var prod, tests int
	for _, s := range stats {
		fmt.Fprintf(w, "%s\t%d\t%d\n", s.Dir, s.Prod, s.Tests)
		prod += s.Prod
		tests += s.Tests
	}
	fmt.Fprintf(w, "total\t%d\t%d\n", prod, tests)
	return w.Flush()
}

// collectStats walks root and groups Go line counts by directory, sorted by
// path. Directories the go tool ignores are skipped.
func collectStats(root string) ([]pkgStats, error) {
	byDir := make(map[string]*pkgStats)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && ignoredDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}

		n, err := countLines(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return err
		}
		dir := filepath.ToSlash(rel)
		s, ok := byDir[dir]
		if !ok {
			s = &pkgStats{Dir: dir}
			byDir[dir] = s
		}
		if strings.HasSuffix(path, "_test.go") {
			s.Tests += n
		} else {
			s.Prod += n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	stats := make([]pkgStats, 0, len(byDir))
	for _, s := range byDir {
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Dir < stats[j].Dir })
	return stats, nil
}

func ignoredDir(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") ||
		name == "testdata" || name == binDir
}

// countLines returns the number of non-blank lines in path.
func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	return n, nil
}
