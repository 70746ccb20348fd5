// Package config handles hessian.yaml loading for the hessian CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
)

// envRef matches ${NAME}, ${NAME:-fallback} and ${NAME:?message}.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:[-?])([^}]*))?\}`)

// ExpandEnv substitutes environment references in a config document.
//
//   - ${NAME} is the value of NAME, empty when unset
//   - ${NAME:-fallback} is fallback when NAME is unset or empty
//   - ${NAME:?message} is an error when NAME is unset or empty
//
// Every missing required variable is reported, not just the first.
func ExpandEnv(doc string) (string, error) {
	var missing []error
	out := envRef.ReplaceAllStringFunc(doc, func(ref string) string {
		m := envRef.FindStringSubmatch(ref)
		name, op, arg := m[1], m[2], m[3]

		if v := os.Getenv(name); v != "" {
			return v
		}
		switch op {
		case ":-":
			return arg
		case ":?":
			if arg == "" {
				arg = "required"
			}
			missing = append(missing, fmt.Errorf("${%s}: %s", name, arg))
		}
		return ""
	})
	return out, errors.Join(missing...)
}
