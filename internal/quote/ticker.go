package quote

import "strings"

// SanitizeTicker turns a ticker symbol into a path- and key-safe segment:
// dots become underscores and a leading caret becomes "idx_". Applying it to
// its own output is a no-op.
func SanitizeTicker(symbol string) string {
	s := strings.ReplaceAll(symbol, ".", "_")
	if strings.HasPrefix(s, "^") {
		s = "idx_" + s[1:]
	}
	return s
}
