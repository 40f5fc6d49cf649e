package str

import (
	"errors"
	"strings"
)

// ParseStringFunc parses a call expression "name(arg1, arg2)" into the name
// and its raw arguments. A bare "name" is valid and yields nil args.
func ParseStringFunc(expr string) (string, []string, error) {
	openIdx := strings.IndexRune(expr, '(')
	if openIdx == -1 {
		closeIdx := strings.IndexRune(expr, ')')
		if closeIdx != -1 {
			return "", nil, errors.New("invalid close bracket position")
		}
		return expr, nil, nil
	}
	name := strings.TrimSpace(expr[:openIdx])

	arg := strings.TrimSpace(expr[openIdx+1:])
	closeIdx := strings.IndexRune(arg, ')')
	if closeIdx != len(arg)-1 || closeIdx == -1 {
		return "", nil, errors.New("invalid close bracket position")
	}
	arg = strings.TrimSpace(arg[:closeIdx])
	args := strings.Split(arg, ",")
	for i := range args {
		args[i] = strings.TrimSpace(args[i])
	}
	return name, args, nil
}

// ParseCall parses a capability call expression "module.capability(args)".
// The argument list is optional; "module.capability" and
// "module.capability()" both yield no args.
func ParseCall(expr string) (string, string, []string, error) {
	fn, args, err := ParseStringFunc(expr)
	if err != nil {
		return "", "", nil, err
	}
	moduleName, capability, found := strings.Cut(fn, ".")
	if !found || moduleName == "" || capability == "" {
		return "", "", nil, errors.New("expected module.capability form")
	}
	if len(args) == 1 && args[0] == "" {
		args = nil
	}
	return moduleName, capability, args, nil
}
