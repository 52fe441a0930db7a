package helpers

import "strings"

// Slugify lowercases s and joins its alphanumeric runs with sep.
// "St. Mary's High" with "_" becomes "st_mary_s_high".
func Slugify(s, sep string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pending && b.Len() > 0 {
				b.WriteString(sep)
			}
			pending = false
			b.WriteRune(r)
		default:
			pending = true
		}
	}
	return b.String()
}

// SchemaNameFor derives a tenant schema name from a school name.
func SchemaNameFor(prefix, schoolName string) string {
	name := prefix + Slugify(schoolName, "_")
	if len(name) > 63 {
		name = strings.TrimRight(name[:63], "_")
	}
	return name
}

// AdminUsernameFor builds the school admin username: spaces become underscores.
func AdminUsernameFor(schoolName string) string {
	return "admin_" + strings.ReplaceAll(strings.ToLower(strings.TrimSpace(schoolName)), " ", "_")
}
