//go:build !cgo_sqlite

package main

import (
	"database/sql"
	"net/url"
	"strings"

	_ "modernc.org/sqlite"
)

// initDB opens the manifest database with the pure Go driver.
func initDB(dataSource string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", nativeDSN(dataSource))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// nativeDSN rewrites the go-sqlite3 style parameters used in the config
// (_journal_mode, _busy_timeout, _synchronous) as _pragma parameters.
func nativeDSN(dataSource string) string {
	path, query, ok := strings.Cut(dataSource, "?")
	if !ok {
		return dataSource
	}
	params, err := url.ParseQuery(query)
	if err != nil {
		return dataSource
	}
	out := url.Values{}
	for key, values := range params {
		pragma, isPragma := strings.CutPrefix(key, "_")
		switch {
		case isPragma && (pragma == "journal_mode" || pragma == "busy_timeout" || pragma == "synchronous"):
			for _, v := range values {
				out.Add("_pragma", pragma+"("+v+")")
			}
		default:
			out[key] = append(out[key], values...)
		}
	}
	return path + "?" + out.Encode()
}
