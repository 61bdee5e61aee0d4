package templating

import (
	"reflect"
	"testing"
)

func TestScope_RestoresPreviousValues(t *testing.T) {
	vars := NewVariables()
	vars.Set("p.title", "kept")
	vars.Set("site.name", "Sundew")

	scope := vars.Scope("p")
	scope.Set("title", "first")
	scope.Set("title", "second")
	scope.Set("url", "x.html")
	if v, _ := vars.Get("p.title"); v != "second" {
		t.Errorf("p.title = %q inside the scope, want %q", v, "second")
	}

	scope.Close()
	scope.Close()
	if v, _ := vars.Get("p.title"); v != "kept" {
		t.Errorf("p.title = %q after close, want %q", v, "kept")
	}
	if _, ok := vars.Get("p.url"); ok {
		t.Error("p.url should be removed after close")
	}
	if got := vars.Keys(); !reflect.DeepEqual(got, []string{"p.title", "site.name"}) {
		t.Errorf("Keys() = %v", got)
	}
}

func TestVariables_Clone(t *testing.T) {
	vars := NewVariables()
	vars.Set("a", "1")
	clone := vars.Clone()
	clone.Set("a", "2")
	clone.Delete("a")
	if v, ok := vars.Get("a"); !ok || v != "1" {
		t.Errorf("clone modified the original: %q %v", v, ok)
	}
	if clone.Len() != 0 {
		t.Errorf("clone should be empty, has %d keys", clone.Len())
	}
}
