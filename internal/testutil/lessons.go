package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// LessonsDir returns the absolute path of the solved lessons under the
// repository's testdata/lessons directory. Every case in it passes.
func LessonsDir(t testing.TB) string {
	t.Helper()

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot locate testutil source file")
	}
	return filepath.Join(filepath.Dir(file), "..", "..", "testdata", "lessons")
}

// WriteLesson writes content to dir/name and returns the file path.
func WriteLesson(t testing.TB, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write lesson %s: %v", name, err)
	}
	return path
}
