/*
Package token implements the lexer shared by the Sundew template engine, the
site configuration loader and the Markdown title override.

A Cursor scans one immutable byte buffer. Tokens never copy the bytes they
describe: a Token is a kind plus a (start, end) offset pair into the cursor's
buffer, and Cursor.Text materializes it on demand. Advancing a cursor never
reallocates, and Peek is side-effect free because a Cursor is a plain value
that can be copied and restored.
*/
package token
