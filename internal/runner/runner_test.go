package runner

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/koans/internal/koan"
	"github.com/roach88/koans/internal/lesson"
	"github.com/roach88/koans/internal/testutil"
)

// fixtureLessons builds two lessons without touching disk.
func fixtureLessons() []*lesson.File {
	return []*lesson.File{
		{
			Name: "about_arrays",
			Path: "koans/about_arrays.yaml",
			Cases: []lesson.Case{
				{Name: "creating_arrays", Ordinal: 1, Line: 4},
				{Name: "array_literals", Ordinal: 2, Line: 9},
			},
		},
		{
			Name: "about_classes",
			Path: "koans/about_classes.yaml",
			Cases: []lesson.Case{
				{Name: "new_creates_instances", Ordinal: 1, Line: 30},
			},
		},
	}
}

// scripted returns an executor that answers from outcomes by case name.
func scripted(outcomes map[string]error) Executor {
	return ExecutorFunc(func(_ *lesson.File, c *lesson.Case) error {
		return outcomes[c.Name]
	})
}

func mixedOutcomes() Executor {
	return scripted(map[string]error{
		"array_literals": &koan.Failure{
			Kind:    koan.KindAssertionMismatch,
			Message: "Expected 2, got 3",
			Line:    11,
		},
		"new_creates_instances": &koan.RaisedError{
			Kind:    lesson.KindNoMethodError,
			Message: "undefined method 'bark' for nil",
			Line:    32,
		},
	})
}

func loadSolved(t *testing.T) []*lesson.File {
	t.Helper()
	files, err := lesson.Discover([]string{testutil.LessonsDir(t)})
	require.NoError(t, err)
	lessons, err := lesson.Load(files)
	require.NoError(t, err)
	return lessons
}

func TestRun_AllPass(t *testing.T) {
	lessons := loadSolved(t)
	n := 0
	for _, l := range lessons {
		n += len(l.Cases)
	}

	result := Run(lessons, koan.NewExecutor(), Options{})

	assert.Equal(t, n, result.Total)
	assert.Equal(t, n, result.Passed)
	assert.Nil(t, result.FirstFailure)
	assert.True(t, result.AllPassed())
}

func TestRun_ClassifiesOutcomes(t *testing.T) {
	result := Run(fixtureLessons(), mixedOutcomes(), Options{})

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Errored)
	assert.Equal(t, 0, result.Skipped)
	assert.False(t, result.AllPassed())

	require.Len(t, result.Cases, 3)
	assert.Equal(t, CaseResult{
		Lesson: "about_arrays", Case: "creating_arrays", Ordinal: 1,
		Path: "koans/about_arrays.yaml", Line: 4, Outcome: OutcomePass,
	}, result.Cases[0])
	assert.Equal(t, CaseResult{
		Lesson: "about_arrays", Case: "array_literals", Ordinal: 2,
		Path: "koans/about_arrays.yaml", Line: 11, Outcome: OutcomeFail,
		Kind: koan.KindAssertionMismatch, Message: "Expected 2, got 3",
	}, result.Cases[1])
	assert.Equal(t, CaseResult{
		Lesson: "about_classes", Case: "new_creates_instances", Ordinal: 1,
		Path: "koans/about_classes.yaml", Line: 32, Outcome: OutcomeError,
		Kind: KindUnexpectedError, Message: "NoMethodError: undefined method 'bark' for nil",
	}, result.Cases[2])

	assert.Equal(t, []string{"about_arrays", "about_classes"}, result.Lessons())
}

func TestRun_FirstFailureIsEarliestNonPassingCase(t *testing.T) {
	// Every position k gets the first failure regardless of what follows.
	names := []string{"creating_arrays", "array_literals", "new_creates_instances"}
	for k, name := range names {
		t.Run(name, func(t *testing.T) {
			outcomes := map[string]error{}
			for _, later := range names[k:] {
				outcomes[later] = errors.New("boom " + later)
			}
			outcomes[name] = &koan.Failure{Kind: koan.KindAssertionMismatch, Message: "first"}

			result := Run(fixtureLessons(), scripted(outcomes), Options{})

			require.NotNil(t, result.FirstFailure)
			assert.Equal(t, name, result.FirstFailure.Case)
			assert.Equal(t, "first", result.FirstFailure.Message)
			assert.Equal(t, OutcomeFail, result.FirstFailure.Outcome)
		})
	}
}

func TestRun_ContinuesByDefault(t *testing.T) {
	calls := 0
	exec := ExecutorFunc(func(*lesson.File, *lesson.Case) error {
		calls++
		return &koan.Failure{Kind: koan.KindAssertionMismatch, Message: "no"}
	})

	result := Run(fixtureLessons(), exec, Options{})

	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, result.Failed)
}

func TestRun_FailFastSkipsRemainingCases(t *testing.T) {
	var executed []string
	exec := ExecutorFunc(func(_ *lesson.File, c *lesson.Case) error {
		executed = append(executed, c.Name)
		return mixedOutcomes().Execute(nil, c)
	})

	var observed []Outcome
	result := Run(fixtureLessons(), exec, Options{
		FailFast: true,
		Observer: func(cr CaseResult) { observed = append(observed, cr.Outcome) },
	})

	assert.Equal(t, []string{"creating_arrays", "array_literals"}, executed)
	assert.Equal(t, []Outcome{OutcomePass, OutcomeFail, OutcomeSkipped}, observed)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "array_literals", result.FirstFailure.Case)

	skipped := result.Cases[2]
	assert.Empty(t, skipped.Kind)
	assert.Equal(t, 30, skipped.Line)
}

func TestRun_RecoversPanics(t *testing.T) {
	exec := ExecutorFunc(func(_ *lesson.File, c *lesson.Case) error {
		if c.Name == "array_literals" {
			panic("index out of range")
		}
		return nil
	})

	result := Run(fixtureLessons(), exec, Options{})

	assert.Equal(t, 2, result.Passed)
	assert.Equal(t, 1, result.Errored)
	assert.Equal(t, OutcomeError, result.Cases[1].Outcome)
	assert.Equal(t, KindUnexpectedError, result.Cases[1].Kind)
	assert.Equal(t, "panic: index out of range", result.Cases[1].Message)
	assert.Equal(t, 9, result.Cases[1].Line, "case line is kept when the error has none")
}

func TestRun_EmptyLessonSet(t *testing.T) {
	result := Run(nil, mixedOutcomes(), Options{})

	assert.Equal(t, 0, result.Total)
	assert.NotNil(t, result.Cases)
	assert.Nil(t, result.FirstFailure)
	assert.True(t, result.AllPassed())
}

func TestRun_SequenceEquality(t *testing.T) {
	path := testutil.WriteLesson(t, t.TempDir(), "about_sequences.yaml", `
lesson: about_sequences
cases:
  - name: same_sequence
    steps:
      - assert_equal: { expected: [1, 2, 3], actual: { array: [{ lit: 1 }, { lit: 2 }, { lit: 3 }] } }
  - name: shorter_sequence
    steps:
      - assert_equal: { expected: [1, 2, 3], actual: { array: [{ lit: 1 }, { lit: 2 }] } }
`)
	lessons, err := lesson.Load([]string{path})
	require.NoError(t, err)

	result := Run(lessons, koan.NewExecutor(), Options{})

	assert.Equal(t, OutcomePass, result.Cases[0].Outcome)
	assert.Equal(t, OutcomeFail, result.Cases[1].Outcome)
	assert.Equal(t, koan.KindAssertionMismatch, result.Cases[1].Kind)
	assert.Contains(t, result.Cases[1].Message, "expected 3 elements, got 2")
	assert.Equal(t, 9, result.Cases[1].Line)
}

func TestRun_RaiseAssertions(t *testing.T) {
	path := testutil.WriteLesson(t, t.TempDir(), "about_raising.yaml", `
lesson: about_raising
cases:
  - name: expecting_the_raised_kind
    steps:
      - assert_raise: { error: NameError, do: nobody }
  - name: expecting_another_kind
    steps:
      - assert_raise: { error: ArgumentError, do: nobody }
`)
	lessons, err := lesson.Load([]string{path})
	require.NoError(t, err)

	result := Run(lessons, koan.NewExecutor(), Options{})

	assert.Equal(t, OutcomePass, result.Cases[0].Outcome)
	assert.Equal(t, OutcomeFail, result.Cases[1].Outcome)
	assert.Equal(t, koan.KindExpectedErrorNotRaised, result.Cases[1].Kind)
}

func TestRun_UnexpectedErrorFromLessonContent(t *testing.T) {
	path := testutil.WriteLesson(t, t.TempDir(), "about_mistakes.yaml", `
lesson: about_mistakes
cases:
  - name: calling_a_missing_method
    steps:
      - let: x
        be: { lit: null }
      - do: x.bark
`)
	lessons, err := lesson.Load([]string{path})
	require.NoError(t, err)

	result := Run(lessons, koan.NewExecutor(), Options{})

	cr := result.Cases[0]
	assert.Equal(t, OutcomeError, cr.Outcome)
	assert.Equal(t, KindUnexpectedError, cr.Kind)
	assert.Equal(t, "NoMethodError: undefined method 'bark' for nil", cr.Message)
	assert.Equal(t, 8, cr.Line)
}

func TestRun_MissingLessonNeverRuns(t *testing.T) {
	_, err := lesson.Load([]string{filepath.Join(t.TempDir(), "about_nothing.yaml")})

	var loadErr *lesson.LoadError
	require.ErrorAs(t, err, &loadErr)
}

func TestRun_Idempotent(t *testing.T) {
	lessons := loadSolved(t)

	first := Run(lessons, koan.NewExecutor(), Options{})
	second := Run(lessons, koan.NewExecutor(), Options{})
	assert.Equal(t, first, second)

	d1, err := first.Digest()
	require.NoError(t, err)
	d2, err := second.Digest()
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	// Blanked lessons are idempotent too, failures included
	blanked, err := lesson.Discover([]string{filepath.Join(testutil.LessonsDir(t), "..", "..", "koans")})
	require.NoError(t, err)
	blankLessons, err := lesson.Load(blanked)
	require.NoError(t, err)
	assert.Equal(t,
		Run(blankLessons, koan.NewExecutor(), Options{}),
		Run(blankLessons, koan.NewExecutor(), Options{}))
}

func TestDigest_ChangesWithOutcome(t *testing.T) {
	pass := Run(fixtureLessons(), scripted(nil), Options{})
	mixed := Run(fixtureLessons(), mixedOutcomes(), Options{})

	d1, err := pass.Digest()
	require.NoError(t, err)
	d2, err := mixed.Digest()
	require.NoError(t, err)
	assert.NotEqual(t, d1, d2)
}

func TestRun_GoldenMixedOutcomes(t *testing.T) {
	AssertGolden(t, "mixed_outcomes", Run(fixtureLessons(), mixedOutcomes(), Options{}))
}

func TestRun_GoldenAllPass(t *testing.T) {
	AssertGolden(t, "all_pass", Run(fixtureLessons(), scripted(nil), Options{}))
}
