package lesson

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadError reports a lesson source that is missing or malformed.
// A LoadError is fatal to a run: no case executes.
type LoadError struct {
	Path    string
	Line    int // 0 when unknown
	Message string
	Err     error // underlying error (optional)
}

func (e *LoadError) Error() string {
	loc := e.Path
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", loc, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", loc, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads lesson files in the given order. Files come back in path order
// with case ordinals assigned in declaration order.
// Returns a *LoadError if any path is missing or malformed, or if two files
// declare the same lesson name.
func Load(paths []string) ([]*File, error) {
	files := make([]*File, 0, len(paths))
	seen := make(map[string]string, len(paths))

	for _, path := range paths {
		file, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[file.Name]; dup {
			return nil, &LoadError{
				Path:    path,
				Message: fmt.Sprintf("lesson %q is already declared in %s", file.Name, prev),
			}
		}
		seen[file.Name] = path
		files = append(files, file)
	}

	return files, nil
}

// LoadFile reads and validates a single lesson file.
// The format is chosen by extension: .yaml, .yml or .cue.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "failed to read lesson file", Err: err}
	}

	var file *File
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		file, err = parseYAML(data, path)
	case ".cue":
		file, err = parseCUE(data, path)
	default:
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("unsupported lesson format %q", ext)}
	}
	if err != nil {
		return nil, err
	}

	if err := validateFile(file); err != nil {
		return nil, err
	}
	return file, nil
}

// parseYAML decodes lesson YAML with strict field checking. It does not
// validate semantics; LoadFile does that once lines are final.
func parseYAML(data []byte, path string) (*File, error) {
	var file File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Path: path, Message: "lesson file is empty"}
		}
		return nil, &LoadError{Path: path, Message: "failed to parse lesson", Err: err}
	}

	file.Path = path
	for i := range file.Cases {
		file.Cases[i].Ordinal = i + 1
	}
	return &file, nil
}
