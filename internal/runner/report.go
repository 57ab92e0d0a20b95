package runner

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/convoy-run/convoy/internal/model"
)

// RenderTable writes the run report as a human-readable summary table.
func RenderTable(w io.Writer, report *model.RunReport) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"#", "Job", "Python", "State", "Duration"})
	for i := range report.Jobs {
		job := &report.Jobs[i]
		tw.AppendRow(table.Row{
			job.Spec.Index,
			job.Spec.Name,
			job.Spec.Python,
			colorState(job.State),
			job.Duration.Round(time.Millisecond),
		})
	}
	passed, failed, errored, canceled := report.Counts()
	tw.AppendFooter(table.Row{
		"", "", "",
		summaryLine(passed, failed, errored, canceled),
		report.Duration.Round(time.Millisecond),
	})
	tw.Render()
}

// RenderJSON writes the run report as indented JSON for scripting.
func RenderJSON(w io.Writer, report *model.RunReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// RenderJobsTable writes the expanded matrix as a table, without
// running anything. Used by `convoy jobs`.
func RenderJobsTable(w io.Writer, specs []model.JobSpec) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"#", "Job", "Python", "Env"})
	for i := range specs {
		spec := &specs[i]
		tw.AppendRow(table.Row{spec.Index, spec.Name, spec.Python, envSummary(spec.Env)})
	}
	tw.Render()
}

// ReportExitCode maps a run outcome to the process exit code.
// Cancellation dominates, then errored, then failed.
func ReportExitCode(report *model.RunReport) model.ExitCode {
	_, failed, errored, canceled := report.Counts()
	switch {
	case canceled > 0:
		return model.ExitInterrupted
	case errored > 0:
		return model.ExitJobErrored
	case failed > 0:
		return model.ExitJobFailed
	case report.Passed():
		return model.ExitSuccess
	default:
		return model.ExitGeneralError
	}
}

func colorState(state model.JobState) string {
	switch state {
	case model.JobPassed:
		return text.FgGreen.Sprint(state)
	case model.JobFailed, model.JobErrored:
		return text.FgRed.Sprint(state)
	default:
		return text.FgYellow.Sprint(state)
	}
}

func summaryLine(passed, failed, errored, canceled int) string {
	s := fmt.Sprintf("%d passed", passed)
	if failed > 0 {
		s += fmt.Sprintf(", %d failed", failed)
	}
	if errored > 0 {
		s += fmt.Sprintf(", %d errored", errored)
	}
	if canceled > 0 {
		s += fmt.Sprintf(", %d canceled", canceled)
	}
	return s
}

func envSummary(env map[string]string) string {
	list := make([]string, 0, len(env))
	for k, v := range env {
		list = append(list, k+"="+v)
	}
	sort.Strings(list)
	return strings.Join(list, " ")
}
