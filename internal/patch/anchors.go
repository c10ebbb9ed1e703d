// Package patch applies the attachment-forwarding patch to Relaybot's
// message handler: anchor-based insertion of an import line and a logic
// block, four-way self-verification, and rollback to the pre-patch backup on
// any failure. The handler file is treated purely as text.
package patch

import (
	"regexp"
	"strings"

	"github.com/karol/relayfix/internal/detect"
	"github.com/karol/relayfix/internal/models"
)

// importAnchor is the import of a sibling helper that has shipped in every
// Relaybot release so far; the new import goes immediately after its line.
const importAnchor = "require('../media/render')"

// handlerAnchorRe is the coarse anchor: the handler's name and parameter
// list. handlerOpenRe is the fine anchor: the arrow and opening brace that
// must follow it. Keeping them separate distinguishes "handler not found"
// from "handler found but in an unexpected shape".
var (
	handlerAnchorRe = regexp.MustCompile(`handleMessage\s*=\s*async\s*\(\s*payload\s*,\s*context\s*\)`)
	handlerOpenRe   = regexp.MustCompile(`^\s*=>\s*\{`)
)

// importInsertIndex locates where the new import line goes: the byte offset
// just after the line containing the import anchor. ok is false when the
// anchor is absent.
func importInsertIndex(text string) (int, bool) {
	idx := strings.Index(text, importAnchor)
	if idx < 0 {
		return 0, false
	}
	return endOfLine(text, idx), true
}

// lastImportInsertIndex is the fallback insertion point: just after the line
// of the last require() statement in the file. ok is false when the file has
// no import statements at all.
func lastImportInsertIndex(text string) (int, bool) {
	idx := strings.LastIndex(text, "require(")
	if idx < 0 {
		return 0, false
	}
	return endOfLine(text, idx), true
}

// handlerBodyIndex locates the byte offset just after the opening brace of
// handleMessage's body. It fails with "handler definition not found" when the
// coarse anchor is absent, and "could not parse handler structure" when the
// parameter list matched but the arrow/brace form did not.
func handlerBodyIndex(text string) (int, *models.Error) {
	loc := handlerAnchorRe.FindStringIndex(text)
	if loc == nil {
		return 0, models.NewError(models.CodePatchFailed, "handler definition not found")
	}
	rest := text[loc[1]:]
	open := handlerOpenRe.FindStringIndex(rest)
	if open == nil {
		return 0, models.NewError(models.CodePatchFailed, "could not parse handler structure")
	}
	return loc[1] + open[1], nil
}

// endOfLine returns the offset just past the newline terminating the line
// containing offset idx, or len(text) when it is the last line.
func endOfLine(text string, idx int) int {
	nl := strings.IndexByte(text[idx:], '\n')
	if nl < 0 {
		return len(text)
	}
	return idx + nl + 1
}

// insertImport adds the helper import after the anchor (or after the last
// import as a fallback). Idempotent: text already containing the import
// marker is returned unchanged.
func insertImport(text string) (string, *models.Error) {
	if detect.HasImportMarker(text) {
		return text, nil
	}
	at, ok := importInsertIndex(text)
	if !ok {
		at, ok = lastImportInsertIndex(text)
	}
	if !ok {
		return "", models.NewError(models.CodePatchFailed, "no suitable insertion point for import")
	}
	line := detect.ImportLine + "\n"
	if at == len(text) && !strings.HasSuffix(text, "\n") {
		line = "\n" + line
	}
	return text[:at] + line + text[at:], nil
}

// insertLogic adds the forwarding block immediately after the handler's
// opening brace, preserving everything else byte-for-byte. Idempotent: text
// already containing the logic marker is returned unchanged.
func insertLogic(text string) (string, *models.Error) {
	if detect.HasLogicMarker(text) {
		return text, nil
	}
	at, err := handlerBodyIndex(text)
	if err != nil {
		return "", err
	}
	return text[:at] + detect.LogicBlock + text[at:], nil
}
