// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/pdiddy/tomarkdown/internal/decode"
	"github.com/pdiddy/tomarkdown/pkg/types"
)

// Discover walks root recursively and returns one task per regular file
// with a recognized extension, sorted by input path. Symlinks to regular
// files count as files. The output path
// mirrors the file's location relative to root under outRoot, with the
// extension replaced by .md.
//
// Unreadable subdirectories are logged and skipped. An error reading root
// itself is returned.
func Discover(fsys afero.Fs, root, outRoot string, logger *slog.Logger) ([]types.Task, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var tasks []types.Task
	err := afero.Walk(fsys, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn("skipping unreadable path", "path", path, "error", err)
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() || !decode.IsSupportedPath(path) {
			return nil
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			// Links to files are followed; links to directories are not
			// descended into.
			target, err := fsys.Stat(path)
			if err != nil {
				logger.Warn("skipping broken symlink", "path", path, "error", err)
				return nil
			}
			info = target
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		out, err := OutputPath(root, outRoot, path)
		if err != nil {
			return err
		}
		tasks = append(tasks, types.Task{InputPath: path, OutputPath: out})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].InputPath < tasks[j].InputPath })
	return tasks, nil
}

// OutputPath maps input, a file under root, to its Markdown location under
// outRoot.
func OutputPath(root, outRoot, input string) (string, error) {
	rel, err := filepath.Rel(root, input)
	if err != nil {
		return "", fmt.Errorf("relating %s to %s: %w", input, root, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", input, root)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + decode.MarkdownExt
	return filepath.Join(outRoot, rel), nil
}

// ValidateInputDir checks that dir exists and is a directory.
func ValidateInputDir(fsys afero.Fs, dir string) error {
	info, err := fsys.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return &types.InputError{Path: dir, Reason: "Directory not found"}
	}
	if err != nil {
		return &types.InputError{Path: dir, Reason: err.Error()}
	}
	if !info.IsDir() {
		return &types.InputError{Path: dir, Reason: "Not a directory"}
	}
	return nil
}
