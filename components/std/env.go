// Package std contains the builtin mixins: small capability donors for the
// process environment, time and read only file access.
package std

import (
	"os"
)

// Env donates process environment capabilities.
type Env struct{}

func NewEnv() *Env { return &Env{} }

// Get returns the value of the environment variable key, empty when unset.
func (e *Env) Get(key string) string { return os.Getenv(key) }

// Has reports whether the environment variable key is set.
func (e *Env) Has(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}
