// Package storage handles the on-disk layout shared by the distributor and
// the mailer: per-student assignment trees, additive file copies, and the
// shared-storage fallback mirror.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/courseops/taflow/internal/domain/model"
)

// File permission constants.
const (
	dirPermission  = 0o755
	filePermission = 0o644
)

// StudentDir returns {root}/{last_name}_{id}.
func StudentDir(root string, s model.Student) string {
	return filepath.Join(root, s.DirName())
}

// AssignmentDir returns {root}/{last_name}_{id}/{assignment}.
func AssignmentDir(root string, s model.Student, assignment string) string {
	return filepath.Join(StudentDir(root, s), assignment)
}

// Scaffold creates one directory per (student, assignment) under root.
// It is idempotent: existing directories are left untouched.
func Scaffold(root string, students []model.Student, assignments []string) error {
	for _, s := range students {
		for _, a := range assignments {
			dir := AssignmentDir(root, s, a)
			if err := os.MkdirAll(dir, dirPermission); err != nil {
				return fmt.Errorf("create %s: %w", dir, err)
			}
		}
	}
	return nil
}

// CopyFile copies src to dst without touching src. The destination directory
// must already exist; a missing parent is the caller's error to surface.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("create destination %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return nil
}

// MirrorToFallback copies files into {fallbackRoot}/{last}_{id}/{assignment},
// creating intermediate directories as needed. Used when the mail transport
// rejects a message for size.
func MirrorToFallback(fallbackRoot string, s model.Student, assignment string, files []string) (string, error) {
	dir := AssignmentDir(fallbackRoot, s, assignment)
	if err := os.MkdirAll(dir, dirPermission); err != nil {
		return "", fmt.Errorf("create fallback dir %s: %w", dir, err)
	}
	for _, f := range files {
		if err := CopyFile(f, filepath.Join(dir, filepath.Base(f))); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// NormalizeDir renames every regular file in dir to its transport-safe name
// (spaces/slashes underscored, hyphens dropped, ASCII-transliterated).
// Already-normalized files are left alone, so repeated runs are no-ops.
func NormalizeDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		clean := model.NormalizeFileName(e.Name())
		if clean == e.Name() {
			continue
		}
		if err := os.Rename(filepath.Join(dir, e.Name()), filepath.Join(dir, clean)); err != nil {
			return fmt.Errorf("rename %s: %w", e.Name(), err)
		}
	}
	return nil
}

// ListPDFs returns the absolute paths of the .pdf files in dir, sorted by
// name. A missing directory is reported as-is so callers can distinguish
// "no submissions" from "tree not scaffolded".
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", e.Name(), err)
		}
		files = append(files, abs)
	}
	sort.Strings(files)
	return files, nil
}
