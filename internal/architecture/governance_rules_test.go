// Package architecture_test enforces the import direction between the
// internal packages.
package architecture_test

import (
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const modulePath = "portfolio"

type layerRule struct {
	sourcePrefix string
	forbidden    []string
	hint         string
}

func internalPkgs(names ...string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, modulePath+"/internal/"+n)
	}
	return out
}

var architectureRules = []layerRule{
	{
		sourcePrefix: modulePath + "/internal/theme",
		forbidden:    internalPkgs("app", "cli", "ui", "config", "contact", "content", "db", "middleware"),
		hint:         "theme may only import theme packages",
	},
	{
		sourcePrefix: modulePath + "/internal/db",
		forbidden:    internalPkgs("app", "cli", "ui", "config", "contact", "content", "middleware", "theme"),
		hint:         "db may only import db packages",
	},
	{
		sourcePrefix: modulePath + "/internal/content",
		forbidden:    internalPkgs("app", "cli", "ui", "config", "contact", "db", "middleware", "theme"),
		hint:         "content may only import content packages",
	},
	{
		sourcePrefix: modulePath + "/internal/middleware",
		forbidden:    internalPkgs("app", "cli", "ui", "config", "contact", "content", "db", "theme"),
		hint:         "middleware may only import middleware packages",
	},
	{
		sourcePrefix: modulePath + "/internal/contact",
		forbidden:    internalPkgs("app", "cli", "ui", "config", "content", "middleware", "theme"),
		hint:         "contact should depend on db and contact-local packages",
	},
	{
		sourcePrefix: modulePath + "/internal/config",
		forbidden:    internalPkgs("app", "cli", "ui", "contact", "content", "db", "middleware"),
		hint:         "config may import theme for its value types",
	},
	{
		sourcePrefix: modulePath + "/internal/ui",
		forbidden:    internalPkgs("app", "cli", "db", "middleware"),
		hint:         "ui renders through theme, content and contact; wiring lives in app",
	},
	{
		sourcePrefix: modulePath + "/internal/app",
		forbidden:    internalPkgs("cli"),
		hint:         "app wires packages; cli sits on top of it",
	},
}

func collectGoFiles(root string) ([]string, error) {
	files := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".go") {
			files = append(files, filepath.ToSlash(path))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func repoRootDir() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "."
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}

func internalRootDir() string {
	return filepath.Join(repoRootDir(), "internal")
}

func findRule(sourcePkg string) (layerRule, bool) {
	for _, rule := range architectureRules {
		if hasPathPrefix(sourcePkg, rule.sourcePrefix) {
			return rule, true
		}
	}
	return layerRule{}, false
}

func matchingForbiddenPrefix(importPath string, forbidden []string) string {
	for _, prefix := range forbidden {
		if hasPathPrefix(importPath, prefix) {
			return prefix
		}
	}
	return ""
}

func hasPathPrefix(value string, prefix string) bool {
	return value == prefix || strings.HasPrefix(value, prefix+"/")
}

func packageImportPath(file string) string {
	path := filepath.ToSlash(file)
	idx := strings.Index(path, "/internal/")
	if idx >= 0 {
		return modulePath + filepath.ToSlash(filepath.Dir(path[idx:]))
	}
	return modulePath + "/" + filepath.ToSlash(filepath.Dir(path))
}

func isTestFile(path string) bool {
	return strings.HasSuffix(filepath.Base(path), "_test.go")
}

func parseImports(t *testing.T, file string) []string {
	t.Helper()

	fset := token.NewFileSet()
	parsed, err := parser.ParseFile(fset, file, nil, parser.ImportsOnly)
	require.NoErrorf(t, err, "parse imports for %s", file)

	imports := make([]string, 0, len(parsed.Imports))
	for _, imp := range parsed.Imports {
		imports = append(imports, strings.Trim(imp.Path.Value, "\""))
	}
	return imports
}

func relToRepoRoot(path string) string {
	rel, err := filepath.Rel(repoRootDir(), path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func TestPackageImportPath(t *testing.T) {
	require.Equal(t, "portfolio/internal/theme/prepaint", packageImportPath("/src/repo/internal/theme/prepaint/verify.go"))
	require.Equal(t, "portfolio/internal/ui", packageImportPath("/src/repo/internal/ui/theme.go"))
}

func TestEveryInternalPackageHasARule(t *testing.T) {
	entries, err := filepath.Glob(filepath.Join(internalRootDir(), "*"))
	require.NoError(t, err)

	for _, dir := range entries {
		name := filepath.Base(dir)
		if name == "architecture" || name == "cli" {
			continue
		}
		_, ok := findRule(modulePath + "/internal/" + name)
		require.Truef(t, ok, "governance: internal/%s has no import rule", name)
	}
}
