// ABOUTME: Object name sanitization
// ABOUTME: Restricts names to word characters and the name table length limit
package umx

// SanitizeName removes every byte outside [A-Za-z0-9_] and truncates the
// result to MaxNameLength bytes
func SanitizeName(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name) && len(out) < MaxNameLength; i++ {
		if c := name[i]; isWordByte(c) {
			out = append(out, c)
		}
	}
	return string(out)
}

func isWordByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
