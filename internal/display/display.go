// Package display renders detection reports, patch outcomes and status
// summaries for operators.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/karol/relayfix/internal/models"
	"github.com/karol/relayfix/internal/orchestrator"
)

var (
	okColor    = color.New(color.FgGreen)
	badColor   = color.New(color.FgRed)
	warnColor  = color.New(color.FgYellow)
	labelColor = color.New(color.FgCyan)
)

// Report prints a detection report.
func Report(w io.Writer, rep *models.DetectionReport) {
	fmt.Fprintf(w, "%s %s\n", labelColor.Sprint("Status:"), statusText(rep.Status))
	if rep.InstallPath != "" {
		fmt.Fprintf(w, "%s %s", labelColor.Sprint("Install:"), rep.InstallPath)
		if rep.Version != "" {
			fmt.Fprintf(w, " (v%s)", rep.Version)
		}
		fmt.Fprintln(w)
	}
	if rep.TargetFile != "" {
		fmt.Fprintf(w, "%s %s\n", labelColor.Sprint("Handler:"), rep.TargetFile)
	}

	for _, f := range rep.Findings {
		tag := infoTag(f.Severity)
		fmt.Fprintf(w, "  %s %s", tag, f.Message)
		if f.Line > 0 {
			fmt.Fprintf(w, " (line %d)", f.Line)
		}
		fmt.Fprintln(w)
		if f.Suggestion != "" {
			fmt.Fprintf(w, "      suggested remedy: %s\n", firstLine(f.Suggestion))
		}
	}
}

// FixSummary prints the outcome of a fix invocation.
func FixSummary(w io.Writer, res *orchestrator.FixResult) {
	switch {
	case res.AlreadyFixed:
		fmt.Fprintf(w, "%s Relaybot already carries the attachment forwarding patch\n", okColor.Sprint("✓"))
	case res.Outcome != nil && res.Outcome.Success:
		fmt.Fprintf(w, "%s %s\n", okColor.Sprint("✓"), res.Outcome.Message)
		if res.Outcome.BackupPath != "" {
			fmt.Fprintf(w, "  backup: %s\n", res.Outcome.BackupPath)
		}
		if res.Restarted {
			fmt.Fprintf(w, "  service restarted\n")
		}
	case res.Outcome != nil:
		fmt.Fprintf(w, "%s %s\n", badColor.Sprint("✗"), res.Outcome.Message)
	}
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "  %s %s\n", warnColor.Sprint("⚠"), warning)
	}
}

// UndoSummary prints the outcome of an undo invocation.
func UndoSummary(w io.Writer, res *orchestrator.UndoResult) {
	fmt.Fprintf(w, "%s restored from %s\n", okColor.Sprint("✓"), res.RestoredFrom)
	if res.Deleted {
		fmt.Fprintf(w, "  backup deleted\n")
	}
	if res.Restarted {
		fmt.Fprintf(w, "  service restarted\n")
	}
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "  %s %s\n", warnColor.Sprint("⚠"), warning)
	}
}

// StatusSummary prints the aggregate status view.
func StatusSummary(w io.Writer, res *orchestrator.StatusResult) {
	Report(w, res.Report)

	fmt.Fprintf(w, "%s ", labelColor.Sprint("Service:"))
	switch {
	case !res.ServiceExists:
		fmt.Fprintln(w, "not installed")
	case res.ServiceStatus.Active:
		fmt.Fprintf(w, "%s", okColor.Sprint("active"))
		if res.ServiceStatus.Since != "" {
			fmt.Fprintf(w, " since %s", res.ServiceStatus.Since)
		}
		fmt.Fprintln(w)
	default:
		fmt.Fprintln(w, badColor.Sprint("inactive"))
	}

	fmt.Fprintf(w, "%s %d\n", labelColor.Sprint("Backups:"), len(res.Backups))
	for _, rec := range res.Backups {
		fmt.Fprintf(w, "  %s  %s  %d bytes\n", rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.Path, rec.SizeBytes)
	}

	if len(res.History) > 0 {
		fmt.Fprintf(w, "%s\n", labelColor.Sprint("Recent runs:"))
		for _, e := range res.History {
			mark := okColor.Sprint("✓")
			if !e.Success {
				mark = badColor.Sprint("✗")
			}
			fmt.Fprintf(w, "  %s %s %s: %s\n", mark, e.CreatedAt.Format("2006-01-02 15:04"), e.Command, e.Message)
		}
	}
}

// Backups prints backup records, newest first.
func Backups(w io.Writer, records []*models.BackupRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "no backups")
		return
	}
	for _, rec := range records {
		fmt.Fprintf(w, "%s  %s  %d bytes\n", rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.Path, rec.SizeBytes)
	}
}

func statusText(s models.Status) string {
	switch s {
	case models.StatusFixed:
		return okColor.Sprint("fixed")
	case models.StatusNeedsFix:
		return warnColor.Sprint("needs fix")
	case models.StatusNotFound:
		return badColor.Sprint("Relaybot not found")
	case models.StatusFileNotFound:
		return badColor.Sprint("handler file not found")
	}
	return string(s)
}

func infoTag(sev models.Severity) string {
	switch sev {
	case models.SeverityError:
		return badColor.Sprint("✗")
	case models.SeverityWarning:
		return warnColor.Sprint("⚠")
	}
	return labelColor.Sprint("•")
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n ")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
