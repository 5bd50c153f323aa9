package bombeerrors

import (
	"errors"
	"testing"
)

func TestNotFoundCarriesLookup(t *testing.T) {
	err := NotFound("com.ex.Foo")
	if err.Code != Query {
		t.Fatalf("code = %s, want QUERY", err.Code)
	}
	details, ok := err.Details.(map[string]interface{})
	if !ok || details["lookup"] != "com.ex.Foo" {
		t.Fatalf("details did not carry lookup: %+v", err.Details)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(Database, "migration failed", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is did not find wrapped cause")
	}
}
