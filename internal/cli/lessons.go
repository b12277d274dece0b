package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/roach88/koans/internal/lesson"
)

// lessonPaths returns args, or the configured lesson directory when no
// paths were given.
func lessonPaths(args []string, opts *RootOptions) []string {
	if len(args) > 0 {
		return args
	}
	return []string{opts.config().Path}
}

// loadLessons discovers, loads and filters lessons. Errors are reported
// through the formatter and returned as ExitCommandError.
func loadLessons(f *OutputFormatter, paths []string, filter string) ([]*lesson.File, error) {
	files, err := lesson.Discover(paths)
	if err != nil {
		return nil, reportLoadError(f, err)
	}
	f.VerboseLog("Found %d lesson file(s)", len(files))

	lessons, err := lesson.Load(files)
	if err != nil {
		return nil, reportLoadError(f, err)
	}

	lessons, err = lesson.Filter(lessons, filter)
	if err != nil {
		return nil, fail(f, ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	if len(lessons) == 0 {
		return nil, fail(f, ExitCommandError, ErrCodeNoLessons, fmt.Sprintf("no lessons match filter %q", filter), nil)
	}
	return lessons, nil
}

// LoadErrorDetails locates a load error for the JSON envelope.
type LoadErrorDetails struct {
	Path string `json:"path"`
	Line int    `json:"line,omitempty"`
}

func reportLoadError(f *OutputFormatter, err error) error {
	code := ErrCodeLoadFailed
	if errors.Is(err, fs.ErrNotExist) {
		code = ErrCodeNotFound
	}

	var details any
	var loadErr *lesson.LoadError
	if errors.As(err, &loadErr) {
		details = LoadErrorDetails{Path: loadErr.Path, Line: loadErr.Line}
	}
	_ = f.Error(code, err.Error(), details)
	return WrapExitError(ExitCommandError, code, err)
}
