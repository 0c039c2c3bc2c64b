package app

import "regexp"

// namePlaceholder matches the personalization token case-insensitively.
var namePlaceholder = regexp.MustCompile(`(?i)\{\{name\}\}`)

// fallbackName is substituted when a recipient has no display name.
const fallbackName = "Friend"

// PersonalizeMessage replaces every occurrence of the {{name}} placeholder in
// the template with the recipient's display name, falling back to "Friend".
func PersonalizeMessage(template, displayName string) string {
	if displayName == "" {
		displayName = fallbackName
	}
	return namePlaceholder.ReplaceAllLiteralString(template, displayName)
}
