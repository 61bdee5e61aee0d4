/*
Package manifest keeps a SQLite record of site builds: one row per build run
and one row per output file with the SHA-256 of its content. A builder uses
it to skip rewriting outputs whose content has not changed and to find
outputs that a build no longer produces.

The package does not import a database driver. Open the database with
either github.com/mattn/go-sqlite3 or modernc.org/sqlite and call
SetupSchema before NewStore.
*/
package manifest
