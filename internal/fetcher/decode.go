package fetcher

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bnema/safari-blocker-converter/internal/models"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decode turns raw list bytes into text. UTF-16 input needs a byte order
// mark; anything else must be valid UTF-8.
func Decode(data []byte) (string, error) {
	if bytes.HasPrefix(data, bomUTF16LE) || bytes.HasPrefix(data, bomUTF16BE) {
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", models.ErrInvalidEncoding, err)
		}
		return string(out), nil
	}

	data = bytes.TrimPrefix(data, bomUTF8)
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: not valid UTF-8", models.ErrInvalidEncoding)
	}
	return string(data), nil
}

// LooksLikeHTML reports whether a download is a web page rather than a
// filter list, as served by captive portals and error pages
func LooksLikeHTML(text string) bool {
	head := text
	if len(head) > 512 {
		head = head[:512]
	}
	head = strings.ToLower(strings.TrimSpace(head))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}
