package handler

import (
	"html/template"
	"strings"
	"time"
)

// TemplateFuncs returns a FuncMap with custom template functions
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"year": func() int {
			return time.Now().Year()
		},

		// fieldError looks up a field's validation message; nil maps are fine
		"fieldError": func(errs map[string]string, field string) string {
			return errs[field]
		},

		// textRows sizes the draft textarea to its content
		"textRows": func(s string) int {
			rows := strings.Count(s, "\n") + 2
			if rows < 12 {
				return 12
			}
			if rows > 40 {
				return 40
			}
			return rows
		},
	}
}
