package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/koans/internal/runner"
)

// BarWidth is the number of cells in the progress bar.
const BarWidth = 50

// Options controls text rendering.
type Options struct {
	// Color enables ANSI colors.
	Color bool

	// Verbose lists every case outcome before the summary.
	Verbose bool
}

type palette struct {
	pass, fail, warn, info, skip *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		pass: color.New(color.FgGreen),
		fail: color.New(color.FgRed),
		warn: color.New(color.FgYellow),
		info: color.New(color.FgCyan),
		skip: color.New(color.FgHiBlack),
	}
	for _, c := range []*color.Color{p.pass, p.fail, p.warn, p.info, p.skip} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Text renders result as learner-facing text.
func Text(result *runner.Result, opts Options) string {
	p := newPalette(opts.Color)
	var b strings.Builder

	if opts.Verbose {
		writeCases(&b, result, p)
	}

	if f := result.FirstFailure; f != nil {
		fmt.Fprintf(&b, "%s\n", p.fail.Sprintf("%s#%s has damaged your karma.", LessonTitle(f.Lesson), f.Case))
		b.WriteString("\nThe Master says:\n")
		fmt.Fprintf(&b, "  %s\n", p.info.Sprint("You have not yet reached enlightenment."))
		fmt.Fprintf(&b, "  %s\n", p.info.Sprint(zenStatement(result)))

		b.WriteString("\nThe answers you seek...\n")
		fmt.Fprintf(&b, "  %s\n", p.fail.Sprintf("%s: %s", f.Kind, f.Message))

		b.WriteString("\nPlease meditate on the following code:\n")
		fmt.Fprintf(&b, "  %s\n", p.warn.Sprint(location(f.Path, f.Line)))
	} else {
		fmt.Fprintf(&b, "%s\n", p.pass.Sprint(zenStatement(result)))
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "your path thus far %s %d/%d (%d%%)\n",
		progressBar(result, p), result.Passed, result.Total, percent(result.Passed, result.Total))
	fmt.Fprintf(&b, "Total: %d, Passed: %d, Failed: %d, Errors: %d, Skipped: %d\n",
		result.Total, result.Passed, result.Failed, result.Errored, result.Skipped)

	return b.String()
}

func writeCases(b *strings.Builder, result *runner.Result, p palette) {
	lesson := ""
	for _, c := range result.Cases {
		if c.Lesson != lesson {
			lesson = c.Lesson
			fmt.Fprintf(b, "%s\n", LessonTitle(lesson))
		}
		switch c.Outcome {
		case runner.OutcomePass:
			fmt.Fprintf(b, "  %s %s\n", p.pass.Sprint("[pass]"), c.Case)
		case runner.OutcomeFail:
			fmt.Fprintf(b, "  %s %s\n", p.fail.Sprint("[fail]"), c.Case)
		case runner.OutcomeError:
			fmt.Fprintf(b, "  %s %s\n", p.fail.Sprint("[error]"), c.Case)
		default:
			fmt.Fprintf(b, "  %s %s\n", p.skip.Sprint("[skip]"), c.Case)
		}
	}
	if len(result.Cases) > 0 {
		b.WriteString("\n")
	}
}

// LessonTitle turns a snake_case lesson name into CamelCase.
func LessonTitle(name string) string {
	caser := cases.Title(language.English)
	parts := strings.Split(name, "_")
	for i, part := range parts {
		parts[i] = caser.String(part)
	}
	return strings.Join(parts, "")
}

func location(path string, line int) string {
	if line > 0 {
		return fmt.Sprintf("%s:%d", path, line)
	}
	return path
}

// zenStatement picks the closing line from the pass count.
func zenStatement(result *runner.Result) string {
	if result.FirstFailure == nil {
		return "Mountains are again merely mountains"
	}
	switch result.Passed % 10 {
	case 0:
		return "mountains are merely mountains"
	case 1, 2:
		return "learn the rules so you know how to break them properly"
	case 3, 4:
		return "remember that silence is sometimes the best answer"
	case 5, 6:
		return "sleep is the best meditation"
	case 7, 8:
		return "when you lose, don't lose the lesson"
	default:
		return "things are not what they appear to be: nor are they otherwise"
	}
}

// progressBar draws passed cases as '.', the first failure as 'X' and the
// rest of the path as '_'.
func progressBar(result *runner.Result, p palette) string {
	done := 0
	if result.Total > 0 {
		done = result.Passed * BarWidth / result.Total
	}

	var b strings.Builder
	b.WriteString("[")
	b.WriteString(p.pass.Sprint(strings.Repeat(".", done)))
	rest := BarWidth - done
	if result.FirstFailure != nil && rest > 0 {
		b.WriteString(p.fail.Sprint("X"))
		rest--
	}
	b.WriteString(p.skip.Sprint(strings.Repeat("_", rest)))
	b.WriteString("]")
	return b.String()
}

func percent(n, total int) int {
	if total == 0 {
		return 100
	}
	return n * 100 / total
}

// JSON renders result as indented JSON.
func JSON(result *runner.Result) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return data, nil
}
