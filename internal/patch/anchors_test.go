package patch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karol/relayfix/internal/detect"
	"github.com/karol/relayfix/internal/models"
)

const handlerFixture = `'use strict';

const { Router } = require('relay-core');
const { renderText } = require('../media/render');
const { resolveTarget } = require('../routing/resolve');

const handleMessage = async (payload, context) => {
  const text = renderText(payload, context);
  await context.send(text);
};

module.exports = { handleMessage };
`

func TestImportInsertIndexAfterAnchorLine(t *testing.T) {
	at, ok := importInsertIndex(handlerFixture)
	require.True(t, ok)

	// The insertion point is the start of the line after the render import.
	assert.Equal(t, "const { resolveTarget }", handlerFixture[at:at+23])
}

func TestImportInsertIndexAnchorMissing(t *testing.T) {
	_, ok := importInsertIndex("const x = require('something-else');\n")
	assert.False(t, ok)
}

func TestLastImportInsertIndexFallback(t *testing.T) {
	text := "const a = require('a');\nconst b = require('b');\nconst rest = 1;\n"
	at, ok := lastImportInsertIndex(text)
	require.True(t, ok)
	assert.Equal(t, "const rest", text[at:at+10])
}

func TestLastImportInsertIndexNoImports(t *testing.T) {
	_, ok := lastImportInsertIndex("let x = 1;\n")
	assert.False(t, ok)
}

func TestHandlerBodyIndex(t *testing.T) {
	at, err := handlerBodyIndex(handlerFixture)
	require.Nil(t, err)
	assert.Equal(t, "\n  const text", handlerFixture[at:at+13])
}

func TestHandlerBodyIndexCoarseAnchorMissing(t *testing.T) {
	_, err := handlerBodyIndex("const onMessage = async (msg) => {};\n")
	require.NotNil(t, err)
	assert.Equal(t, models.CodePatchFailed, err.Code)
	assert.Contains(t, err.Message, "handler definition not found")
}

// A parameter list that matches but an unexpected body form (no arrow brace)
// is a distinct failure so format drift is diagnosable.
func TestHandlerBodyIndexFineAnchorMissing(t *testing.T) {
	text := "const handleMessage = async (payload, context) =>\n  context.send(payload);\n"
	_, err := handlerBodyIndex(text)
	require.NotNil(t, err)
	assert.Equal(t, models.CodePatchFailed, err.Code)
	assert.Contains(t, err.Message, "could not parse handler structure")
}

func TestInsertImport(t *testing.T) {
	patched, err := insertImport(handlerFixture)
	require.Nil(t, err)

	assert.True(t, detect.HasImportMarker(patched))
	renderLine := strings.Index(patched, "require('../media/render')")
	importLine := strings.Index(patched, detect.ImportLine)
	assert.Greater(t, importLine, renderLine, "import goes after the anchor")
}

func TestInsertImportIdempotent(t *testing.T) {
	patched, err := insertImport(handlerFixture)
	require.Nil(t, err)
	again, err := insertImport(patched)
	require.Nil(t, err)
	assert.Equal(t, patched, again)
}

func TestInsertImportFallbackToLastRequire(t *testing.T) {
	text := strings.ReplaceAll(handlerFixture, "const { renderText } = require('../media/render');\n", "")
	patched, err := insertImport(text)
	require.Nil(t, err)
	assert.True(t, detect.HasImportMarker(patched))

	// Inserted after the last require line, before the handler.
	lastRequire := strings.Index(patched, "require('../routing/resolve')")
	importAt := strings.Index(patched, detect.ImportLine)
	handlerAt := strings.Index(patched, "handleMessage = async")
	assert.Greater(t, importAt, lastRequire)
	assert.Less(t, importAt, handlerAt)
}

func TestInsertImportNoInsertionPoint(t *testing.T) {
	_, err := insertImport("let x = 1;\n")
	require.NotNil(t, err)
	assert.Equal(t, models.CodePatchFailed, err.Code)
	assert.Contains(t, err.Message, "no suitable insertion point")
}

func TestInsertLogic(t *testing.T) {
	patched, err := insertLogic(handlerFixture)
	require.Nil(t, err)

	assert.True(t, detect.HasLogicMarker(patched))
	assert.True(t, detect.HasCallMarker(patched))
	assert.True(t, detect.HasAttributionMarker(patched))

	// Everything outside the inserted block is preserved byte-for-byte.
	assert.Equal(t, handlerFixture, strings.Replace(patched, detect.LogicBlock, "", 1))
}

func TestInsertLogicIdempotent(t *testing.T) {
	patched, err := insertLogic(handlerFixture)
	require.Nil(t, err)
	again, err := insertLogic(patched)
	require.Nil(t, err)
	assert.Equal(t, patched, again)
}
