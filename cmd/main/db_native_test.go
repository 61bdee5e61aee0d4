//go:build !cgo_sqlite

package main

import (
	"net/url"
	"slices"
	"strings"
	"testing"
)

func TestNativeDSN(t *testing.T) {
	if got := nativeDSN("./m.db"); got != "./m.db" {
		t.Errorf("a DSN without parameters should be unchanged, got %q", got)
	}

	got := nativeDSN("./m.db?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	path, query, _ := strings.Cut(got, "?")
	if path != "./m.db" {
		t.Errorf("path = %q", path)
	}
	params, err := url.ParseQuery(query)
	if err != nil {
		t.Fatal(err)
	}
	pragmas := params["_pragma"]
	slices.Sort(pragmas)
	if !slices.Equal(pragmas, []string{"busy_timeout(5000)", "journal_mode(WAL)"}) {
		t.Errorf("pragmas = %v", pragmas)
	}
	if params.Get("_txlock") != "immediate" {
		t.Errorf("other parameters should pass through, got %v", params)
	}
}
