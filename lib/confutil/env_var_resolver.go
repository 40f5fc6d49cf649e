package confutil

import (
	"errors"
	"fmt"
	"os"
)

var ErrEnvVariableNotProvided error = errors.New("env variable not set")

// EnvTagResolver resolves a custom tag token with an env variable value.
var EnvTagResolver TagResolver = envTokenResolver

func envTokenResolver(in string) (string, error) {
	val, ok := os.LookupEnv(in)
	if !ok {
		return "", fmt.Errorf("%s: %w", in, ErrEnvVariableNotProvided)
	}

	return val, nil
}
