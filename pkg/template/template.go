// Package template provides placeholder substitution for automation message
// content. Templates contain {{dotted.path}} placeholders resolved against a
// context map; there are no loops, conditionals, or filters.
package template

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{([^{}]*)\}\}`)

// Render replaces every {{ path }} placeholder in input with the string form
// of the value at that dotted path in data. A placeholder resolves to the
// empty string when any path segment is missing, an intermediate value is not
// a map, or the resolved value is nil. Substitution is single-pass: values
// containing placeholder syntax are not re-expanded.
func Render(input string, data map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		path := strings.TrimSpace(match[2 : len(match)-2])
		if path == "" {
			return ""
		}

		return stringify(resolve(path, data))
	})
}

func resolve(path string, data map[string]any) any {
	var current any = data

	for segment := range strings.SplitSeq(path, ".") {
		segment = strings.TrimSpace(segment)

		node, ok := current.(map[string]any)
		if !ok {
			return nil
		}

		current, ok = node[segment]
		if !ok {
			return nil
		}
	}

	return current
}

func stringify(value any) string {
	if value == nil {
		return ""
	}

	if s, ok := value.(string); ok {
		return s
	}

	return fmt.Sprintf("%v", value)
}
