package confutil

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// PropertyTagResolver resolves a custom tag token from a properties file,
// for example: secret: '${property:/etc/buildeasy/secret.properties#token}'
var PropertyTagResolver TagResolver = propertyTokenResolver

func propertyTokenResolver(in string) (string, error) {
	filename, property, found := strings.Cut(in, "#")
	if !found {
		return "", fmt.Errorf("expected 'file#property' form, got '%v'", in)
	}
	file, err := os.Open(filename)
	if err != nil {
		return "", fmt.Errorf("cannot open file: '%v'", filename)
	}

	defer file.Close()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "=") {
			kv := strings.SplitN(line, "=", 2)
			if kv[0] == property {
				return kv[1], nil
			}
		}
	}

	return "", fmt.Errorf("no such property '%v', in file '%v'", property, filename)
}
