package llm

import "strings"

var refusalPatterns = []string{
	"i'm sorry",
	"i can't help",
	"cannot help",
	"unable to",
	"not able to",
	"can't help with that",
}

// IsRefusal 大小写不敏感的子串匹配，命中任意拒答短语即视为拒答
func IsRefusal(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range refusalPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
