// Package hello is the worked example module: a greeter whose singleton
// counts greetings across fetches.
package hello

import (
	"fmt"
)

type Config struct {
	// Name is who the greetings come from.
	Name string `config:"name"`
}

func DefaultConfig() Config {
	return Config{Name: "buildeasy"}
}

type Hello struct {
	Name      string
	Greetings int
}

func New(conf Config) *Hello {
	return &Hello{Name: conf.Name}
}

// Greet returns the greeting and counts it.
func (h *Hello) Greet() string {
	h.Greetings++
	return fmt.Sprintf("Hello from %s!", h.Name)
}
