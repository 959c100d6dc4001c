// Package eligibility implements the optional geographic admission gate
// applied before any CV processing. The filter is a pure predicate over a
// configured allow-list of international calling codes.
package eligibility

import "strings"

type Filter struct {
	enabled  bool
	prefixes []string // calling codes including the leading +, e.g. "+49"
}

func NewFilter(enabled bool, prefixes []string) *Filter {
	clean := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "+") {
			p = "+" + p
		}
		clean = append(clean, p)
	}
	return &Filter{enabled: enabled, prefixes: clean}
}

func (f *Filter) Enabled() bool {
	return f.enabled
}

// AllowText reports whether free-form text (an email body) mentions any
// allow-listed calling code. With the filter disabled everything passes.
func (f *Filter) AllowText(text string) bool {
	if !f.enabled {
		return true
	}
	for _, prefix := range f.prefixes {
		if strings.Contains(text, prefix) {
			return true
		}
	}
	return false
}

// AllowPhone reports whether a phone number starts with an allow-listed
// calling code. Formatting characters and the leading + are ignored.
func (f *Filter) AllowPhone(number string) bool {
	if !f.enabled {
		return true
	}
	clean := strings.NewReplacer("+", "", " ", "", "-", "").Replace(number)
	for _, prefix := range f.prefixes {
		if strings.HasPrefix(clean, strings.TrimPrefix(prefix, "+")) {
			return true
		}
	}
	return false
}
