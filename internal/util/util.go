package util

import (
	"os"
	"strings"
)

// Getenv reads key and parses it as the type of def. Unset, blank or
// unparsable values yield def.
func Getenv[T StringParsable](key string, def T) T {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return ParseStringAs(v, def)
}
