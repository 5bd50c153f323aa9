package symbols

import (
	"strings"
	"testing"

	"bombe/internal/storage"
)

func TestToModuleName(t *testing.T) {
	if got := toModuleName("src/services/user_service.ts"); got != "src.services.user_service" {
		t.Errorf("toModuleName = %q", got)
	}
}

func TestBuildParametersGo(t *testing.T) {
	params := buildParameters("ctx context.Context, name string, opts ...Option", LangGo)
	if len(params) != 3 {
		t.Fatalf("expected 3 params, got %d: %+v", len(params), params)
	}
	if params[0].Name != "ctx" || params[0].Type != "context.Context" {
		t.Errorf("param 0 = %+v", params[0])
	}
	if params[2].Name != "opts" || params[2].Type != "Option" {
		t.Errorf("variadic param should strip ...: %+v", params[2])
	}
}

func TestBuildParametersTypeScript(t *testing.T) {
	params := buildParameters("name: string, age: number", LangTypeScript)
	if len(params) != 2 || params[0].Name != "name" || params[0].Type != "string" {
		t.Fatalf("unexpected params: %+v", params)
	}
}

func TestBuildParametersJava(t *testing.T) {
	params := buildParameters("final String name, int age", LangJava)
	if len(params) != 2 {
		t.Fatalf("expected 2 params, got %+v", params)
	}
	if params[0].Name != "name" || params[0].Type != "final String" {
		t.Errorf("param 0 = %+v", params[0])
	}
}

func TestBuildParametersSkipsEmptyChunks(t *testing.T) {
	params := buildParameters("", LangGo)
	if len(params) != 0 {
		t.Errorf("expected no params for empty raw, got %+v", params)
	}
}

func TestExtractGoFunctionsAndMethods(t *testing.T) {
	src := `package widget

import (
	"fmt"
	"context"
)

type Widget struct {
	Name string
}

func (w *Widget) Render(ctx context.Context) string {
	return fmt.Sprintf("widget:%s", w.Name)
}

func NewWidget(name string) *Widget {
	return &Widget{Name: name}
}
`
	result := extractGo("widget.go", src)
	if len(result.Imports) != 2 {
		t.Fatalf("expected 2 imports, got %+v", result.Imports)
	}

	var found []string
	for _, s := range result.Symbols {
		found = append(found, s.QualifiedName)
	}
	want := []string{"widget.Widget", "widget.Widget.Render", "widget.NewWidget"}
	for _, w := range want {
		if !contains(found, w) {
			t.Errorf("expected symbol %q among %v", w, found)
		}
	}

	for _, s := range result.Symbols {
		if s.QualifiedName == "widget.Widget.Render" && s.Kind != storage.KindMethod {
			t.Errorf("Render should be a method, got %s", s.Kind)
		}
		if s.QualifiedName == "widget.NewWidget" && s.Kind != storage.KindFunction {
			t.Errorf("NewWidget should be a function, got %s", s.Kind)
		}
	}
}

func TestExtractGoVisibility(t *testing.T) {
	src := "package p\n\nfunc Public() {}\nfunc private() {}\n"
	result := extractGo("p.go", src)
	for _, s := range result.Symbols {
		switch s.Name {
		case "Public":
			if s.Visibility != storage.VisibilityPublic {
				t.Errorf("Public should be public, got %s", s.Visibility)
			}
		case "private":
			if s.Visibility != storage.VisibilityPrivate {
				t.Errorf("private should be private, got %s", s.Visibility)
			}
		}
	}
}

func TestExtractJavaClassAndMethod(t *testing.T) {
	src := `package com.example;

import java.util.List;

public class UserService {
    public String findUser(String id) {
        return id;
    }
}
`
	result := extractJava("UserService.java", src)
	if len(result.Imports) != 1 || result.Imports[0].Statement != "java.util.List" {
		t.Fatalf("unexpected imports: %+v", result.Imports)
	}

	var classFound, methodFound bool
	for _, s := range result.Symbols {
		if s.QualifiedName == "com.example.UserService" {
			classFound = true
			if s.EndLine <= s.StartLine {
				t.Errorf("expected class end line to close after body, got %d-%d", s.StartLine, s.EndLine)
			}
		}
		if s.QualifiedName == "com.example.UserService.findUser" {
			methodFound = true
			if len(s.Parameters) != 1 || s.Parameters[0].Name != "id" {
				t.Errorf("unexpected method params: %+v", s.Parameters)
			}
		}
	}
	if !classFound || !methodFound {
		t.Fatalf("expected class and method symbols, got %+v", result.Symbols)
	}
}

func TestExtractTypeScriptExportedFunction(t *testing.T) {
	src := `import { Logger } from './logger';

export async function loadUser(id: string): Promise<User> {
    return fetchUser(id);
}
`
	result := extractTypeScript("src/services/user.ts", src)
	if len(result.Imports) != 1 || result.Imports[0].Statement != "./logger" {
		t.Fatalf("unexpected imports: %+v", result.Imports)
	}
	if len(result.Symbols) != 1 {
		t.Fatalf("expected 1 symbol, got %+v", result.Symbols)
	}
	s := result.Symbols[0]
	if s.QualifiedName != "src.services.user.loadUser" || !s.IsAsync {
		t.Errorf("unexpected symbol: %+v", s)
	}
}

func contains(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

func TestExtractUnsupportedLanguage(t *testing.T) {
	_, err := Extract("x.rb", "ruby", "puts 1")
	if err == nil {
		t.Fatal("expected error for unsupported language")
	}
	if !strings.Contains(err.Error(), "unsupported language") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExtractPythonIsOpaque(t *testing.T) {
	result, err := Extract("x.py", LangPython, "def f(): pass")
	if err != nil {
		t.Fatalf("python extraction should not error: %v", err)
	}
	if len(result.Symbols) != 0 {
		t.Errorf("python extraction should be a no-op, got %+v", result.Symbols)
	}
}
