package storage

import (
	"errors"
	"strings"

	"github.com/ghostwire/ghostbot/internal/utils"
)

var ErrNotFound = errors.New("not found")

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// cleanText prepares free text coming from upstream APIs for storage.
func cleanText(s string) string {
	return utils.SanitizeText(s)
}

// cleanLogin normalizes a streaming platform login name.
func cleanLogin(s string) string {
	return strings.ToLower(utils.SanitizeText(s))
}
