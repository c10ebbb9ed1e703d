package detect

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karol/relayfix/internal/locate"
	"github.com/karol/relayfix/internal/models"
)

const unpatchedHandler = `'use strict';

const { Router } = require('relay-core');
const { renderText } = require('../media/render');
const { resolveTarget } = require('../routing/resolve');

const handleMessage = async (payload, context) => {
  const text = renderText(payload, context);
  await context.send(text);
};

module.exports = { handleMessage };
`

const patchedHandler = `'use strict';

const { Router } = require('relay-core');
const { renderText } = require('../media/render');
const { forwardAttachments } = require('../media/forward');
const { resolveTarget } = require('../routing/resolve');

const handleMessage = async (payload, context) => {
  // added by relayfix
  if (payload.attachments && payload.attachments.length > 0) {
    await forwardAttachments(payload, context);
  }
  const text = renderText(payload, context);
  await context.send(text);
};

module.exports = { handleMessage };
`

// handler with the guard block but the dispatching call commented away; the
// hand-edited state scenario.
const logicWithoutCallHandler = `'use strict';

const { Router } = require('relay-core');
const { renderText } = require('../media/render');
const { forwardAttachments } = require('../media/forward');

const handleMessage = async (payload, context) => {
  // added by relayfix
  if (payload.attachments && payload.attachments.length > 0) {
    // forwardAttachments disabled while debugging
  }
  await context.send(renderText(payload, context));
};
`

func TestMarkerPredicates(t *testing.T) {
	assert.False(t, HasImportMarker(unpatchedHandler))
	assert.False(t, HasLogicMarker(unpatchedHandler))
	assert.False(t, HasCallMarker(unpatchedHandler))
	assert.False(t, HasAttributionMarker(unpatchedHandler))

	assert.True(t, HasImportMarker(patchedHandler))
	assert.True(t, HasLogicMarker(patchedHandler))
	assert.True(t, HasCallMarker(patchedHandler))
	assert.True(t, HasAttributionMarker(patchedHandler))

	assert.True(t, HasFrameworkImport(unpatchedHandler))
	assert.True(t, HasHandlerSignature(unpatchedHandler))
}

// TestImportMarkerNeedsBothParts guards against a stray identifier being
// mistaken for the import: symbol and module must both be present.
func TestImportMarkerNeedsBothParts(t *testing.T) {
	assert.False(t, HasImportMarker("const forwardAttachments = null;"))
	assert.False(t, HasImportMarker("// see ../media/forward"))
	assert.True(t, HasImportMarker(ImportLine))
}

// TestInsertedFragmentsCarryMarkers pins the remedy constants to the marker
// predicates: whatever the engine inserts must be what the detector finds.
func TestInsertedFragmentsCarryMarkers(t *testing.T) {
	assert.True(t, HasLogicMarker(LogicBlock))
	assert.True(t, HasCallMarker(LogicBlock))
	assert.True(t, HasAttributionMarker(LogicBlock))
}

// TestClassifyPolicyTable exercises all eight combinations of the three
// markers. Problem follows import AND logic only; a missing call is a
// warning that never flips Problem.
func TestClassifyPolicyTable(t *testing.T) {
	// Synthetic texts assembled from the raw marker strings.
	build := func(imp, logic, call bool) string {
		text := "const { Router } = require('relay-core');\n"
		if imp {
			text += ImportLine + "\n"
		}
		if logic {
			text += LogicMarker + " {\n}\n"
		}
		if call {
			text += CallMarker + "payload, context);\n"
		}
		return text
	}

	tests := []struct {
		name                string
		imp, logic, call    bool
		wantProblem         bool
		wantMissingImport   bool
		wantMissingLogic    bool
		wantMissingCallWarn bool
	}{
		{"all present", true, true, true, false, false, false, false},
		{"none present", false, false, false, true, true, true, false},
		{"import only", true, false, false, true, false, true, false},
		{"logic only", false, true, false, true, true, false, true},
		{"call only", false, false, true, true, true, true, false},
		{"import+logic", true, true, false, true, false, false, true},
		{"import+call", true, false, true, true, false, true, false},
		{"logic+call", false, true, true, true, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Classify(build(tt.imp, tt.logic, tt.call))

			assert.Equal(t, tt.wantProblem, report.Problem, "problem flag")
			assert.Equal(t, tt.wantMissingImport, report.HasFinding(models.FindingMissingImport), "missing-import")
			assert.Equal(t, tt.wantMissingLogic, report.HasFinding(models.FindingMissingLogic), "missing-logic")
			assert.Equal(t, tt.wantMissingCallWarn, report.HasFinding(models.FindingMissingCall), "missing-call")

			if tt.wantProblem {
				assert.Equal(t, models.StatusNeedsFix, report.Status)
				assert.True(t, report.Fixable)
			} else {
				assert.Equal(t, models.StatusFixed, report.Status)
			}
		})
	}
}

// TestClassifyLogicWithoutCall is the hand-edited edge case: logic and
// attribution markers present, call absent. Problem stays false even though
// the patch is arguably broken; the warning is the only signal. The behavior
// is intentional (see the policy note on Classify) and this test pins it.
func TestClassifyLogicWithoutCall(t *testing.T) {
	report := Classify(logicWithoutCallHandler)

	assert.False(t, report.Problem)
	assert.Equal(t, models.StatusFixed, report.Status)
	require.True(t, report.HasFinding(models.FindingMissingCall))

	for _, f := range report.Findings {
		if f.Kind == models.FindingMissingCall {
			assert.Equal(t, models.SeverityWarning, f.Severity)
			assert.Greater(t, f.Line, 0, "warning should carry a line reference")
		}
	}
}

func TestClassifySuggestionsAreLiteralRemedies(t *testing.T) {
	report := Classify(unpatchedHandler)

	require.True(t, report.Problem)
	var importSuggestion, logicSuggestion string
	for _, f := range report.Findings {
		switch f.Kind {
		case models.FindingMissingImport:
			importSuggestion = f.Suggestion
		case models.FindingMissingLogic:
			logicSuggestion = f.Suggestion
		}
	}
	assert.Equal(t, ImportLine, importSuggestion)
	assert.Equal(t, LogicBlock, logicSuggestion)
}

func TestValidateContent(t *testing.T) {
	assert.Empty(t, ValidateContent(unpatchedHandler))
	assert.Empty(t, ValidateContent(patchedHandler))

	errs := ValidateContent("console.log('nothing relaybot about this');")
	assert.Len(t, errs, 2)

	errs = ValidateContent("const { Router } = require('relay-core');")
	assert.Len(t, errs, 1)
}

func writeInstall(t *testing.T, handler string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name":"relaybot","version":"2.4.1"}`), 0644))
	target := filepath.Join(dir, "src", "handlers", "message.js")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0755))
	require.NoError(t, os.WriteFile(target, []byte(handler), 0644))
	return dir
}

func TestDetectAgainstInstall(t *testing.T) {
	dir := writeInstall(t, unpatchedHandler)
	locator := &locate.Locator{Override: dir}
	report := NewDetector(locator).Detect(context.Background())

	assert.Equal(t, models.StatusNeedsFix, report.Status)
	assert.True(t, report.Problem)
	assert.True(t, report.Fixable)
	assert.Equal(t, dir, report.InstallPath)
	assert.Equal(t, "2.4.1", report.Version)
	assert.Equal(t, filepath.Join(dir, locate.TargetFileSource), report.TargetFile)
	assert.Equal(t, []string{report.TargetFile}, report.CheckedFiles)
}

func TestDetectInstallNotFound(t *testing.T) {
	locator := &locate.Locator{Candidates: []string{filepath.Join(t.TempDir(), "nope")}}
	report := NewDetector(locator).Detect(context.Background())

	assert.Equal(t, models.StatusNotFound, report.Status)
	assert.True(t, report.Problem)
	assert.False(t, report.Fixable, "a missing install is not patchable")
	require.Len(t, report.Findings, 1)
}

func TestDetectTargetFileNotFound(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"version":"9.0.0"}`), 0644))

	locator := &locate.Locator{Override: dir}
	report := NewDetector(locator).Detect(context.Background())

	assert.Equal(t, models.StatusFileNotFound, report.Status)
	assert.True(t, report.Problem)
	assert.False(t, report.Fixable)
	assert.Equal(t, "9.0.0", report.Version)
	require.Len(t, report.Findings, 1)
	assert.Contains(t, report.Findings[0].Suggestion, "version")
}
