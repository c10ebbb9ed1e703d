// Package locate resolves where Relaybot is installed, which file holds its
// message handler, and which version is installed. It is pure filesystem and
// process probing; no patch logic lives here.
package locate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/karol/relayfix/internal/shell"
)

// ManifestName is the file whose presence validates an install candidate.
const ManifestName = "package.json"

// Relative paths of the message handler under the install directory. The
// source form is preferred; packaged installs only ship the compiled form.
const (
	TargetFileSource   = "src/handlers/message.js"
	TargetFileCompiled = "dist/handlers/message.js"
)

// binaryName is what `which`-style lookup probes for.
const binaryName = "relaybot"

// DefaultCandidates returns the fixed ordered list of install locations
// checked before falling back to executable and npm lookups.
func DefaultCandidates() []string {
	candidates := []string{
		"/opt/relaybot",
		"/usr/lib/node_modules/relaybot",
		"/usr/local/lib/node_modules/relaybot",
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".relaybot"))
	}
	return candidates
}

// Locator probes the filesystem for a Relaybot installation. An explicit
// Override (from config or flag) short-circuits all probing but is still
// validated against the manifest.
type Locator struct {
	Candidates []string
	Override   string
	Runner     shell.CommandRunner
}

// NewLocator creates a Locator with the default candidate list.
func NewLocator(runner shell.CommandRunner) *Locator {
	return &Locator{Candidates: DefaultCandidates(), Runner: runner}
}

// LocateInstall returns the first candidate directory containing a manifest,
// or "" when Relaybot cannot be found. First match wins; candidates are never
// aggregated.
func (l *Locator) LocateInstall(ctx context.Context) string {
	if l.Override != "" {
		if hasManifest(l.Override) {
			return l.Override
		}
		return ""
	}
	for _, dir := range l.Candidates {
		if hasManifest(dir) {
			return dir
		}
	}
	if dir := l.locateViaExecutable(ctx); dir != "" {
		return dir
	}
	return l.locateViaNpmRoot(ctx)
}

// locateViaExecutable resolves the relaybot binary on PATH and walks up from
// it looking for a directory with a manifest.
func (l *Locator) locateViaExecutable(ctx context.Context) string {
	if l.Runner == nil {
		return ""
	}
	out, err := l.Runner.Run(ctx, "command -v "+binaryName)
	if err != nil {
		return ""
	}
	binPath := strings.TrimSpace(out)
	if binPath == "" {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(binPath); err == nil {
		binPath = resolved
	}
	dir := filepath.Dir(binPath)
	for {
		if hasManifest(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// locateViaNpmRoot asks npm for its global package root and checks for a
// relaybot package beneath it.
func (l *Locator) locateViaNpmRoot(ctx context.Context) string {
	if l.Runner == nil {
		return ""
	}
	out, err := l.Runner.Run(ctx, "npm root -g")
	if err != nil {
		return ""
	}
	root := strings.TrimSpace(out)
	if root == "" {
		return ""
	}
	dir := filepath.Join(root, binaryName)
	if hasManifest(dir) {
		return dir
	}
	return ""
}

// ResolveVersion reads the installed version from the manifest. Returns ""
// when the manifest is unreadable or carries no version; version resolution
// is best-effort and never fails a detection pass.
func (l *Locator) ResolveVersion(installPath string) string {
	data, err := os.ReadFile(filepath.Join(installPath, ManifestName))
	if err != nil {
		return ""
	}
	var manifest struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return ""
	}
	return manifest.Version
}

// ResolveTargetFile returns the handler file path under installPath,
// preferring the source form over the compiled form. Returns "" when neither
// exists.
func (l *Locator) ResolveTargetFile(installPath string) string {
	for _, rel := range []string{TargetFileSource, TargetFileCompiled} {
		path := filepath.Join(installPath, rel)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func hasManifest(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ManifestName))
	return err == nil && !info.IsDir()
}
