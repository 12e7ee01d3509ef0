package asr

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// LanguageAuto is the sentinel language hint meaning auto-detect.
const LanguageAuto = "auto"

// NormalizeLanguage canonicalizes a user-supplied language hint. Empty and
// "auto" both normalize to the empty string (auto-detect). Anything else must
// parse as a BCP 47 tag; only the base language is kept, so "zh-CN" and "en-US"
// normalize to "zh" and "en" as expected by recognition backends.
func NormalizeLanguage(hint string) (string, error) {
	hint = strings.TrimSpace(strings.ToLower(hint))
	if hint == "" || hint == LanguageAuto {
		return "", nil
	}

	tag, err := language.Parse(hint)
	if err != nil {
		return "", fmt.Errorf("invalid language hint %q: %w", hint, err)
	}

	base, conf := tag.Base()
	if conf == language.No {
		return "", fmt.Errorf("invalid language hint %q: no base language", hint)
	}
	return base.String(), nil
}
