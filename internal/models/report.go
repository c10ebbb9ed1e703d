// Package models defines the shared data types exchanged between the
// detector, patch engine, backup store and CLI: findings, detection reports,
// patch outcomes, backup records and the tagged error taxonomy.
package models

import "time"

// Severity classifies how serious a finding is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// FindingKind is a closed set of detected conditions.
type FindingKind string

const (
	FindingMissingImport FindingKind = "missing-import"
	FindingMissingLogic  FindingKind = "missing-logic"
	FindingMissingCall   FindingKind = "missing-call"
	FindingUnrecognized  FindingKind = "structurally-unrecognized"
)

// Finding is one detected condition about the target file. Findings are
// produced fresh on every detection pass and never persisted.
type Finding struct {
	Kind       FindingKind
	Severity   Severity
	Message    string
	Suggestion string // literal remedy text, e.g. the exact statement to insert
	Line       int    // 1-based line reference, 0 if not applicable
}

// Status is the overall outcome of a detection pass.
type Status string

const (
	StatusFixed        Status = "FIXED"
	StatusNeedsFix     Status = "NEEDS_FIX"
	StatusNotFound     Status = "NOT_FOUND"
	StatusFileNotFound Status = "FILE_NOT_FOUND"
)

// DetectionReport aggregates one detection pass over a single snapshot of the
// target file. It is immutable after construction.
//
// Problem mirrors the upstream tool's behavior literally: it is computed from
// the import and logic markers only. A present logic marker without the
// dispatching call yields a missing-call warning finding but does not flip
// Problem; see the policy note in detect.Classify.
type DetectionReport struct {
	Status       Status
	Problem      bool
	Fixable      bool
	Findings     []Finding
	InstallPath  string
	TargetFile   string
	Version      string
	CheckedFiles []string
}

// HasFinding reports whether the report contains a finding of the given kind.
func (r *DetectionReport) HasFinding(kind FindingKind) bool {
	for _, f := range r.Findings {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

// PatchOutcome is the result of one patch attempt. Success implies a
// re-detection of the same document would report Problem == false.
type PatchOutcome struct {
	Success    bool
	Message    string
	BackupPath string // empty when no backup was taken
	Errors     []*Error
}

// FirstError returns the first structured error, or nil on success.
func (o *PatchOutcome) FirstError() *Error {
	if len(o.Errors) == 0 {
		return nil
	}
	return o.Errors[0]
}

// BackupRecord describes one timestamped copy held by the backup store.
// Records are never mutated after creation, only deleted.
type BackupRecord struct {
	Path         string
	OriginalPath string
	CreatedAt    time.Time
	SizeBytes    int64
}
