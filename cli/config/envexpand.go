// Package config handles YAML config file loading for utf8conv convert.
package config

import (
	"os"
	"regexp"
	"strings"
)

// reference matches ${NAME}, ${NAME:-word} and ${NAME-word}.
// Submatches: 1 name, 2 operator, 3 word.
var reference = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:?-)([^}]*))?\}`)

// ExpandEnv substitutes environment references in a config document.
//
//	${NAME}        value of NAME, empty when unset
//	${NAME:-word}  word when NAME is unset or empty
//	${NAME-word}   word only when NAME is unset
//
// Anything else, including a bare $NAME, is left alone. A missing value is
// not an error here; required fields fail in Validate.
func ExpandEnv(input string) string {
	return expandWith(input, os.LookupEnv)
}

func expandWith(input string, lookup func(string) (string, bool)) string {
	matches := reference.FindAllStringSubmatchIndex(input, -1)
	if len(matches) == 0 {
		return input
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(input[last:m[0]])
		last = m[1]

		name := input[m[2]:m[3]]
		value, set := lookup(name)
		if m[4] < 0 {
			b.WriteString(value)
			continue
		}
		op, word := input[m[4]:m[5]], input[m[6]:m[7]]
		switch {
		case !set, op == ":-" && value == "":
			b.WriteString(word)
		default:
			b.WriteString(value)
		}
	}
	b.WriteString(input[last:])
	return b.String()
}
