// Package detect classifies the content of Relaybot's message handler file:
// which patch markers are present, whether the file needs the attachment
// forwarding patch, and whether the file looks like a handler file at all.
//
// Every marker and anchor is a separate named function so that a format
// change in a future Relaybot release only requires replacing one predicate,
// not the whole engine.
package detect

import "strings"

// Fixed textual markers. These are treated purely as text; the handler file
// is never parsed as a program.
const (
	// HelperSymbol and HelperModule together make up the import marker.
	HelperSymbol = "forwardAttachments"
	HelperModule = "../media/forward"

	// LogicMarker is the guard on the payload's attachment list.
	LogicMarker = "if (payload.attachments && payload.attachments.length > 0)"

	// CallMarker is the awaited invocation of the helper.
	CallMarker = "await forwardAttachments("

	// AttributionMarker distinguishes an automated patch from a
	// coincidentally similar hand-written fix.
	AttributionMarker = "// added by relayfix"

	// FrameworkImportMarker must be present for the file to be recognized as
	// a Relaybot handler at all.
	FrameworkImportMarker = "require('relay-core')"

	// HandlerName is the function the patch targets.
	HandlerName = "handleMessage"
)

// ImportLine is the exact statement inserted by the import step and offered
// as the literal remedy in missing-import findings.
const ImportLine = "const { forwardAttachments } = require('../media/forward');"

// LogicBlock is the exact fragment inserted after the handler's opening
// brace. It carries the attribution marker.
const LogicBlock = "\n  " + AttributionMarker + "\n" +
	"  if (payload.attachments && payload.attachments.length > 0) {\n" +
	"    await forwardAttachments(payload, context);\n" +
	"  }\n"

// HasImportMarker reports whether the text already imports the helper. Both
// the symbol and its source module must appear; either alone could be an
// unrelated identifier.
func HasImportMarker(text string) bool {
	return strings.Contains(text, HelperSymbol) && strings.Contains(text, HelperModule)
}

// HasLogicMarker reports whether the attachment guard is present.
func HasLogicMarker(text string) bool {
	return strings.Contains(text, LogicMarker)
}

// HasCallMarker reports whether the helper is actually awaited somewhere.
func HasCallMarker(text string) bool {
	return strings.Contains(text, CallMarker)
}

// HasAttributionMarker reports whether the text carries the relayfix
// attribution comment.
func HasAttributionMarker(text string) bool {
	return strings.Contains(text, AttributionMarker)
}

// HasFrameworkImport reports whether the text imports Relaybot's core
// framework module.
func HasFrameworkImport(text string) bool {
	return strings.Contains(text, FrameworkImportMarker)
}

// HasHandlerSignature reports whether the host function's name appears.
func HasHandlerSignature(text string) bool {
	return strings.Contains(text, HandlerName)
}

// lineOf returns the 1-based line number of the first occurrence of needle,
// or 0 when absent.
func lineOf(text, needle string) int {
	idx := strings.Index(text, needle)
	if idx < 0 {
		return 0
	}
	return strings.Count(text[:idx], "\n") + 1
}
