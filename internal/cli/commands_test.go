package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/koans/internal/testutil"
)

// bundledKoans is the unsolved lesson set shipped at the repository root.
var bundledKoans = filepath.Join("..", "..", "koans")

// execute runs the root command with args and returns stdout, stderr and
// the command error. Settings from the surrounding environment are cleared.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	for _, key := range []string{"KOANS_PATH", "KOANS_FAIL_FAST", "KOANS_HISTORY_DB", "KOANS_FORMAT", "KOANS_NO_COLOR"} {
		t.Setenv(key, "")
	}

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func decodeResponse(t *testing.T, out string) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestRun_SolvedLessonsExitZero(t *testing.T) {
	out, _, err := execute(t, "run", "--no-color", testutil.LessonsDir(t))

	require.NoError(t, err)
	assert.Equal(t, ExitSuccess, GetExitCode(err))
	assert.Contains(t, out, "Mountains are again merely mountains")
	assert.Contains(t, out, "24/24 (100%)")
}

func TestRun_BundledKoansPointAtFirstCase(t *testing.T) {
	out, _, err := execute(t, "run", "--no-color", bundledKoans)

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "AboutArrayAssignment#non_parallel_assignment has damaged your karma.")
	assert.Contains(t, out, "about_array_assignment.cue:")
	assert.Contains(t, out, "0/24 (0%)")
}

func TestRun_FailFastSkipsRemainingCases(t *testing.T) {
	out, _, err := execute(t, "run", "--no-color", "--fail-fast", bundledKoans)

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Skipped: 23")
}

func TestRun_FilterSelectsLessons(t *testing.T) {
	out, _, err := execute(t, "run", "--no-color", "--filter", "about_array_*", testutil.LessonsDir(t))

	require.NoError(t, err)
	assert.Contains(t, out, "8/8 (100%)")
}

func TestRun_FilterMatchingNothing(t *testing.T) {
	out, _, err := execute(t, "run", "--filter", "about_nothing", testutil.LessonsDir(t))

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]")
}

func TestRun_MissingPath(t *testing.T) {
	out, _, err := execute(t, "run", filepath.Join(t.TempDir(), "nowhere"))

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestRun_MalformedLessonReportsLocation(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteLesson(t, dir, "about_repetition.yaml", `lesson: about_repetition
cases:
  - name: say_it_once
    steps:
      - do: { lit: 1 }
  - name: say_it_once
    steps:
      - do: { lit: 1 }
`)

	out, _, err := execute(t, "run", "--format", "json", path)

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp["status"])
	cliErr := resp["error"].(map[string]any)
	assert.Equal(t, ErrCodeLoadFailed, cliErr["code"])
	details := cliErr["details"].(map[string]any)
	assert.Equal(t, path, details["path"])
	assert.Equal(t, float64(6), details["line"])
	assert.Contains(t, cliErr["message"], `case "say_it_once" declared twice`)
}

func TestRun_JSONEnvelope(t *testing.T) {
	t.Run("all pass", func(t *testing.T) {
		out, _, err := execute(t, "run", "--format", "json", testutil.LessonsDir(t))
		require.NoError(t, err)

		resp := decodeResponse(t, out)
		assert.Equal(t, "ok", resp["status"])
		assert.NotContains(t, resp, "error")
		data := resp["data"].(map[string]any)
		assert.Equal(t, float64(24), data["total"])
		assert.Equal(t, float64(24), data["passed"])
		assert.NotContains(t, data, "first_failure")
	})

	t.Run("failing", func(t *testing.T) {
		out, _, err := execute(t, "run", "--format", "json", bundledKoans)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))

		resp := decodeResponse(t, out)
		assert.Equal(t, "error", resp["status"])
		assert.Equal(t, ErrCodeCasesFailed, resp["error"].(map[string]any)["code"])

		first := resp["data"].(map[string]any)["first_failure"].(map[string]any)
		assert.Equal(t, "about_array_assignment", first["lesson"])
		assert.Equal(t, "non_parallel_assignment", first["case"])
		assert.Equal(t, "fail", first["outcome"])
	})
}

func TestRun_FormatFromEnvironment(t *testing.T) {
	for _, key := range []string{"KOANS_PATH", "KOANS_FAIL_FAST", "KOANS_HISTORY_DB", "KOANS_NO_COLOR"} {
		t.Setenv(key, "")
	}
	t.Setenv("KOANS_FORMAT", "json")

	stdout := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", testutil.LessonsDir(t)})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "ok", decodeResponse(t, stdout.String())["status"])
}

func TestRoot_InvalidFormat(t *testing.T) {
	_, stderr, err := execute(t, "run", "--format", "xml", testutil.LessonsDir(t))

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "Error [E008]")
	assert.Contains(t, stderr, `invalid format "xml"`)
}

func TestRoot_MissingEnvFile(t *testing.T) {
	_, stderr, err := execute(t, "--env-file", filepath.Join(t.TempDir(), "missing.env"), "run")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "Error [E008]")
}

func TestRoot_EnvFileSetsLessonPath(t *testing.T) {
	dir := t.TempDir()
	envFile := testutil.WriteLesson(t, dir, "koans.env", "KOANS_PATH="+testutil.LessonsDir(t)+"\n")

	out, _, err := execute(t, "--env-file", envFile, "run", "--no-color")

	require.NoError(t, err)
	assert.Contains(t, out, "24/24 (100%)")
}

func TestValidate(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		out, _, err := execute(t, "validate", "-v", bundledKoans)
		require.NoError(t, err)

		assert.Contains(t, out, "AboutArrayAssignment (")
		assert.Contains(t, out, "): 8 case(s)")
		assert.Contains(t, out, "  1. non_parallel_assignment\n")
		assert.Contains(t, out, "AboutClasses (")
		assert.Contains(t, out, "✓ All lessons valid (2 lesson(s), 24 case(s))")
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := execute(t, "validate", "--format", "json", testutil.LessonsDir(t))
		require.NoError(t, err)

		var resp struct {
			Status string           `json:"status"`
			Data   ValidationResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.True(t, resp.Data.Valid)
		assert.Equal(t, 24, resp.Data.Cases)
		require.Len(t, resp.Data.Lessons, 2)
		assert.Equal(t, "about_array_assignment", resp.Data.Lessons[0].Name)
		assert.Equal(t, "about_classes", resp.Data.Lessons[1].Name)
		assert.Len(t, resp.Data.Lessons[1].Cases, 16)
	})

	t.Run("filter", func(t *testing.T) {
		out, _, err := execute(t, "validate", "--filter", "about_classes", bundledKoans)
		require.NoError(t, err)
		assert.Contains(t, out, "(1 lesson(s), 16 case(s))")
	})

	t.Run("malformed", func(t *testing.T) {
		path := testutil.WriteLesson(t, t.TempDir(), "about_nothing.yaml", "lesson: about_nothing\n")
		out, _, err := execute(t, "validate", path)
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error [E004]")
	})
}

func TestHistory_RecordsRuns(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	_, _, err := execute(t, "run", "--no-color", "--history", db, testutil.LessonsDir(t))
	require.NoError(t, err)
	_, _, err = execute(t, "run", "--no-color", "--history", db, bundledKoans)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err), "recording must not change the exit code")

	out, _, err := execute(t, "history", "--db", db)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "#2  "), lines[0])
	assert.Contains(t, lines[0], "0/24 passed  next: AboutArrayAssignment#non_parallel_assignment")
	assert.True(t, strings.HasPrefix(lines[1], "#1  "), lines[1])
	assert.Contains(t, lines[1], "24/24 passed")

	out, _, err = execute(t, "history", "--db", db, "--limit", "1")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 1)
}

func TestHistory_ShowRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	_, _, err := execute(t, "run", "--history", db, bundledKoans)
	require.Error(t, err)

	out, _, err := execute(t, "history", "--format", "json", "--db", db)
	require.NoError(t, err)

	var list struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list.Data, 1)
	id := list.Data[0].ID

	out, _, err = execute(t, "history", "--format", "json", "--db", db, id)
	require.NoError(t, err)

	var detail struct {
		Status string    `json:"status"`
		Data   RunDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &detail))
	assert.Equal(t, "ok", detail.Status)
	assert.Equal(t, id, detail.Data.ID)
	assert.Len(t, detail.Data.Cases, 24)
	assert.Equal(t, "non_parallel_assignment", detail.Data.Cases[0].Case)

	out, _, err = execute(t, "history", "--db", db, id)
	require.NoError(t, err)
	assert.Contains(t, out, "\n  fail    AboutArrayAssignment#non_parallel_assignment: ")
}

func TestHistory_Errors(t *testing.T) {
	t.Run("no database", func(t *testing.T) {
		out, _, err := execute(t, "history")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error [E009]: no history database")
	})

	t.Run("unknown run", func(t *testing.T) {
		db := filepath.Join(t.TempDir(), "history.db")
		out, _, err := execute(t, "history", "--db", db, testutil.SequenceID(1))
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error [E005]")
	})

	t.Run("empty database", func(t *testing.T) {
		db := filepath.Join(t.TempDir(), "history.db")
		out, _, err := execute(t, "history", "--db", db)
		require.NoError(t, err)
		assert.Equal(t, "No runs recorded.\n", out)
	})
}
