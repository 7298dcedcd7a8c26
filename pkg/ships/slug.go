package ships

import "strings"

// Slug normalizes a ship name: lowercase, every maximal run of characters
// outside [a-z0-9] collapses to one hyphen, leading and trailing hyphens
// are trimmed. "Idris-P" and "idris p" both become "idris-p".
func Slug(name string) string {
	lower := strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(lower))
	pendingHyphen := false
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteByte(c)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
