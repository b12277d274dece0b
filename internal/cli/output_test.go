package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]int{"cases": 24})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
	assert.Equal(t, map[string]any{"cases": float64(24)}, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(ErrCodeLoadFailed, "about_classes.yaml:5: undeclared class Cat", LoadErrorDetails{Path: "about_classes.yaml", Line: 5})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeLoadFailed, resp.Error.Code)
	assert.Equal(t, "about_classes.yaml:5: undeclared class Cat", resp.Error.Message)
	assert.Equal(t, map[string]any{"path": "about_classes.yaml", "line": float64(5)}, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	require.NoError(t, formatter.Success("✓ All lessons valid"))
	assert.Equal(t, "✓ All lessons valid\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:  "text",
				Writer:  buf,
				Verbose: tt.verbose,
			}

			err := formatter.Error(ErrCodeNotFound, "koans: no such file or directory", map[string]string{"path": "koans"})
			require.NoError(t, err)
			assert.Contains(t, buf.String(), "Error [E005]: koans: no such file or directory\n")
			if tt.wantDetails {
				assert.Contains(t, buf.String(), "Details:")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}
}

func TestOutputFormatter_VerboseLogGoesToErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:    "json",
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   true,
	}

	formatter.VerboseLog("Found %d lesson file(s)", 2)

	assert.Empty(t, out.String())
	assert.Equal(t, "Found 2 lesson file(s)\n", errOut.String())

	formatter.Verbose = false
	formatter.VerboseLog("hidden")
	assert.Equal(t, "Found 2 lesson file(s)\n", errOut.String())
}

func TestOutputFormatter_GetErrWriterFallsBack(t *testing.T) {
	out := &bytes.Buffer{}
	formatter := &OutputFormatter{Writer: out}
	assert.Same(t, out, formatter.GetErrWriter())
}

func TestExitError(t *testing.T) {
	cause := errors.New("database is locked")

	wrapped := WrapExitError(ExitCommandError, "failed to record run history", cause)
	assert.Equal(t, "failed to record run history: database is locked", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)

	plain := NewExitError(ExitFailure, "2 of 24 case(s) did not pass")
	assert.Equal(t, "2 of 24 case(s) did not pass", plain.Error())
	assert.Nil(t, plain.Unwrap())
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"failing cases", NewExitError(ExitFailure, "did not pass"), ExitFailure},
		{"load error", WrapExitError(ExitCommandError, ErrCodeLoadFailed, errors.New("bad yaml")), ExitCommandError},
		{"wrapped exit error", fmt.Errorf("outer: %w", NewExitError(ExitFailure, "inner")), ExitFailure},
		{"cobra error", errors.New(`unknown command "frobnicate" for "koans"`), ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestFail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := fail(formatter, ExitCommandError, ErrCodeHistory, "no history database", nil)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, "E009: no history database", err.Error())
	assert.Equal(t, "Error [E009]: no history database\n", buf.String())
}

func TestCLIResponse_OmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(CLIResponse{Status: "ok"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, string(data))
}
