//go:build !debug
// +build !debug

// Package tag provides compile time flags. Build with `-tags debug` to
// enable extra config decode tracing.
package tag

const Debug = false
