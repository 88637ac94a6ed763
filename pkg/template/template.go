// Package template provides placeholder rendering for workflow prompts.
package template

import (
	"fmt"
	"regexp"

	"github.com/prodflow/prodflow/pkg/models"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// Render substitutes every {{identifier}} occurrence in input with the string
// form of the matching context value. Single pass: substituted values are not
// re-scanned for placeholders. Absent keys render as an empty string.
func Render(input string, ctx models.Context) string {
	return placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]

		value, ok := ctx[key]
		if !ok || value == nil {
			return ""
		}

		if s, isString := value.(string); isString {
			return s
		}

		return fmt.Sprintf("%v", value)
	})
}
