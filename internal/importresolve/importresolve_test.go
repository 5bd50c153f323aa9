package importresolve

import "testing"

func TestResolvePythonAbsolute(t *testing.T) {
	files := NewFileSet([]string{"pkg/mod.py", "pkg/sub/__init__.py"})
	r := Resolve("python", "pkg/main.py", "pkg.mod", files, "")
	if r.ResolvedPath != "pkg/mod.py" {
		t.Errorf("expected pkg/mod.py, got %q", r.ResolvedPath)
	}
}

func TestResolvePythonPackageInit(t *testing.T) {
	files := NewFileSet([]string{"pkg/sub/__init__.py"})
	r := Resolve("python", "pkg/main.py", "pkg.sub", files, "")
	if r.ResolvedPath != "pkg/sub/__init__.py" {
		t.Errorf("expected __init__.py resolution, got %q", r.ResolvedPath)
	}
}

func TestResolvePythonUnresolved(t *testing.T) {
	files := NewFileSet([]string{"pkg/mod.py"})
	r := Resolve("python", "pkg/main.py", "numpy", files, "")
	if r.ResolvedPath != "" {
		t.Errorf("expected external dependency, got resolved path %q", r.ResolvedPath)
	}
	if r.ModuleName != "numpy" {
		t.Errorf("expected module name numpy, got %q", r.ModuleName)
	}
}

func TestResolveJavaClass(t *testing.T) {
	files := NewFileSet([]string{"a/b/C.java"})
	r := Resolve("java", "x/Y.java", "a.b.C", files, "")
	if r.ResolvedPath != "a/b/C.java" {
		t.Errorf("expected a/b/C.java, got %q", r.ResolvedPath)
	}
}

func TestResolveJavaWildcardPicksFirstAlphabetical(t *testing.T) {
	files := NewFileSet([]string{"a/b/Zeta.java", "a/b/Alpha.java"})
	r := Resolve("java", "x/Y.java", "a.b.*", files, "")
	if r.ResolvedPath != "a/b/Alpha.java" {
		t.Errorf("expected alphabetically first match, got %q", r.ResolvedPath)
	}
}

func TestResolveTypeScriptRelative(t *testing.T) {
	files := NewFileSet([]string{"src/services/logger.ts"})
	r := Resolve("typescript", "src/services/user.ts", "./logger", files, "")
	if r.ResolvedPath != "src/services/logger.ts" {
		t.Errorf("expected logger.ts, got %q", r.ResolvedPath)
	}
}

func TestResolveTypeScriptIndexFallback(t *testing.T) {
	files := NewFileSet([]string{"src/services/index.ts"})
	r := Resolve("typescript", "src/main.ts", "./services", files, "")
	if r.ResolvedPath != "src/services/index.ts" {
		t.Errorf("expected index.ts fallback, got %q", r.ResolvedPath)
	}
}

func TestResolveTypeScriptBareSpecifierIsExternal(t *testing.T) {
	files := NewFileSet(nil)
	r := Resolve("typescript", "src/main.ts", "react", files, "")
	if r.ResolvedPath != "" || r.ModuleName != "react" {
		t.Errorf("expected external dep for bare specifier, got %+v", r)
	}
}

func TestResolveGoRelative(t *testing.T) {
	files := NewFileSet([]string{"internal/util/helper.go"})
	r := Resolve("go", "internal/main.go", "./util", files, "")
	if r.ResolvedPath != "internal/util/helper.go" {
		t.Errorf("expected helper.go, got %q", r.ResolvedPath)
	}
}

func TestResolveGoModulePrefixStripped(t *testing.T) {
	files := NewFileSet([]string{"internal/util/helper.go"})
	r := Resolve("go", "cmd/main.go", "example.com/proj/internal/util", files, "example.com/proj")
	if r.ResolvedPath != "internal/util/helper.go" {
		t.Errorf("expected module-relative resolution, got %q", r.ResolvedPath)
	}
}

func TestResolveGoStdlibIsExternal(t *testing.T) {
	files := NewFileSet([]string{"internal/util/helper.go"})
	r := Resolve("go", "cmd/main.go", "fmt", files, "example.com/proj")
	if r.ResolvedPath != "" {
		t.Errorf("expected fmt to be external, got %q", r.ResolvedPath)
	}
}
