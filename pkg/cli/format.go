// Package cli provides shared terminal formatting helpers for the
// flowclass CLI: ANSI color wrappers and a width-aware table used to
// render flow traces.
package cli

// ANSI color helpers

func Green(s string) string { return "\033[32m" + s + "\033[0m" }
func Red(s string) string   { return "\033[31m" + s + "\033[0m" }
func Bold(s string) string  { return "\033[1m" + s + "\033[0m" }
func Dim(s string) string   { return "\033[2m" + s + "\033[0m" }
