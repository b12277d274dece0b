package lesson

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestName is the file that fixes lesson order within a directory.
const ManifestName = "path_to_enlightenment.yaml"

// Manifest lists lesson files, relative to its directory, in the order a
// learner should walk them.
type Manifest struct {
	Lessons []string `yaml:"lessons"`
}

// IsLessonFile reports whether path has a lesson file extension.
func IsLessonFile(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml", ".cue":
		return filepath.Base(path) != ManifestName
	}
	return false
}

// Discover expands paths into an ordered list of lesson files.
// Files are kept as given. A directory with a manifest expands in manifest
// order; otherwise its lesson files are taken in lexical order.
// Subdirectories are not descended into.
func Discover(paths []string) ([]string, error) {
	var out []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, &LoadError{Path: path, Message: "lesson path not found", Err: err}
		}

		if !info.IsDir() {
			out = append(out, path)
			continue
		}

		files, err := discoverDir(path)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}

func discoverDir(dir string) ([]string, error) {
	manifestPath := filepath.Join(dir, ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return readManifest(manifestPath)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LoadError{Path: dir, Message: "failed to read lesson directory", Err: err}
	}

	// os.ReadDir returns entries sorted by filename
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !IsLessonFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}

	if len(files) == 0 {
		return nil, &LoadError{Path: dir, Message: "no lesson files found"}
	}
	return files, nil
}

func readManifest(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "failed to read manifest", Err: err}
	}

	var manifest Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&manifest); err != nil {
		return nil, &LoadError{Path: path, Message: "failed to parse manifest", Err: err}
	}
	if len(manifest.Lessons) == 0 {
		return nil, &LoadError{Path: path, Message: "manifest lists no lessons"}
	}

	dir := filepath.Dir(path)
	files := make([]string, 0, len(manifest.Lessons))
	for i, name := range manifest.Lessons {
		if !IsLessonFile(name) {
			return nil, &LoadError{Path: path, Message: fmt.Sprintf("lessons[%d]: %q is not a lesson file", i, name)}
		}
		if !filepath.IsAbs(name) {
			name = filepath.Join(dir, name)
		}
		files = append(files, name)
	}
	return files, nil
}

// Filter keeps the lessons whose name matches a filepath.Match pattern.
// An empty pattern keeps everything.
func Filter(files []*File, pattern string) ([]*File, error) {
	if pattern == "" {
		return files, nil
	}
	var out []*File
	for _, f := range files {
		matched, err := filepath.Match(pattern, f.Name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if matched {
			out = append(out, f)
		}
	}
	return out, nil
}
