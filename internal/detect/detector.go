package detect

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/karol/relayfix/internal/locate"
	"github.com/karol/relayfix/internal/models"
)

// Detector runs a full detection pass: resolve the install, resolve the
// target file, read it fresh from disk and classify its content. The file is
// never cached between passes because Relaybot may be updated or hand-edited
// between invocations.
type Detector struct {
	Locator *locate.Locator
}

// NewDetector creates a Detector over the given locator.
func NewDetector(loc *locate.Locator) *Detector {
	return &Detector{Locator: loc}
}

// Detect never returns an error: install-not-found, file-not-found and read
// failures all short-circuit into a structured report so callers always get
// a typed result.
func (d *Detector) Detect(ctx context.Context) *models.DetectionReport {
	installPath := d.Locator.LocateInstall(ctx)
	if installPath == "" {
		return &models.DetectionReport{
			Status:  models.StatusNotFound,
			Problem: true,
			Fixable: false,
			Findings: []models.Finding{{
				Kind:       models.FindingUnrecognized,
				Severity:   models.SeverityError,
				Message:    "no Relaybot installation found",
				Suggestion: "install Relaybot or set install_path in the relayfix config",
			}},
		}
	}

	version := d.Locator.ResolveVersion(installPath)

	targetFile := d.Locator.ResolveTargetFile(installPath)
	if targetFile == "" {
		return &models.DetectionReport{
			Status:      models.StatusFileNotFound,
			Problem:     true,
			Fixable:     false,
			InstallPath: installPath,
			Version:     version,
			Findings: []models.Finding{{
				Kind:     models.FindingUnrecognized,
				Severity: models.SeverityError,
				Message: fmt.Sprintf("message handler not found under %s (expected %s or %s)",
					installPath, locate.TargetFileSource, locate.TargetFileCompiled),
				Suggestion: "this Relaybot version may not be supported by relayfix",
			}},
		}
	}

	data, err := os.ReadFile(targetFile)
	if err != nil {
		return &models.DetectionReport{
			Status:      models.StatusFileNotFound,
			Problem:     true,
			Fixable:     false,
			InstallPath: installPath,
			TargetFile:  targetFile,
			Version:     version,
			Findings: []models.Finding{{
				Kind:     models.FindingUnrecognized,
				Severity: models.SeverityError,
				Message:  fmt.Sprintf("cannot read %s: %v", targetFile, err),
			}},
			CheckedFiles: []string{targetFile},
		}
	}

	report := Classify(string(data))
	report.InstallPath = installPath
	report.TargetFile = targetFile
	report.Version = version
	report.CheckedFiles = []string{targetFile}
	return report
}

// Classify evaluates the three markers against raw text and applies the
// classification policy.
//
// Policy note: Problem is the negation of (import present AND logic present).
// The call marker never flips Problem; when the logic marker is present
// without the dispatching call, a warning finding is emitted instead. This
// asymmetry can under-report a broken intermediate patch as fixed and is kept
// deliberately so relayfix matches the long-standing observable behavior; see
// DESIGN.md for the review note.
func Classify(text string) *models.DetectionReport {
	importPresent := HasImportMarker(text)
	logicPresent := HasLogicMarker(text)
	callPresent := HasCallMarker(text)

	report := &models.DetectionReport{Fixable: true}

	if !importPresent {
		report.Findings = append(report.Findings, models.Finding{
			Kind:       models.FindingMissingImport,
			Severity:   models.SeverityError,
			Message:    "helper import for forwardAttachments is missing",
			Suggestion: ImportLine,
		})
	}
	if !logicPresent {
		report.Findings = append(report.Findings, models.Finding{
			Kind:       models.FindingMissingLogic,
			Severity:   models.SeverityError,
			Message:    "attachment forwarding block is missing from handleMessage",
			Suggestion: LogicBlock,
		})
	}
	if logicPresent && !callPresent {
		report.Findings = append(report.Findings, models.Finding{
			Kind:     models.FindingMissingCall,
			Severity: models.SeverityWarning,
			Message:  "forwarding logic present without a dispatching call",
			Line:     lineOf(text, LogicMarker),
		})
	}

	report.Problem = !(importPresent && logicPresent)
	if report.Problem {
		report.Status = models.StatusNeedsFix
	} else {
		report.Status = models.StatusFixed
	}
	return report
}

// ValidateContent performs a structural sanity check independent of patch
// status: it guards against running the detector (or worse, the patch
// engine) against a handler file from an incompatible Relaybot version.
// Returns a list of problems; an empty list means the file is recognizable.
func ValidateContent(text string) []error {
	var errs []error
	if !HasFrameworkImport(text) {
		errs = append(errs, errors.New("framework import not found: file does not look like a Relaybot handler"))
	}
	if !HasHandlerSignature(text) {
		errs = append(errs, fmt.Errorf("handler function %q not found", HandlerName))
	}
	return errs
}
