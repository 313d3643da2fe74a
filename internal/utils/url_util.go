package utils

import (
	"fmt"
	"strings"
)

// JoinURL joins base and path with exactly one slash between them
func JoinURL(base, path string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), strings.TrimLeft(path, "/"))
}
