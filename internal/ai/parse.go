package ai

import (
	"errors"
	"regexp"
	"strings"
)

const maxCaptionRunes = 4000

var (
	fencePattern    = regexp.MustCompile("(?s)^```[a-zA-Z]*\\n?(.*?)\\n?```$")
	blankRunPattern = regexp.MustCompile(`\n{3,}`)
	headingPattern  = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	ErrEmptyCaption = errors.New("empty_caption")
)

// CleanCaption normalizes model output into a plain description: it drops a
// wrapping code fence and markdown heading markers, collapses runs of blank
// lines and caps the length.
func CleanCaption(text string) (string, error) {
	s := strings.ReplaceAll(text, "\r\n", "\n")
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); len(m) == 2 {
		s = strings.TrimSpace(m[1])
	}
	s = headingPattern.ReplaceAllString(s, "")
	s = blankRunPattern.ReplaceAllString(s, "\n\n")
	if s == "" {
		return "", ErrEmptyCaption
	}
	if r := []rune(s); len(r) > maxCaptionRunes {
		s = strings.TrimSpace(string(r[:maxCaptionRunes]))
	}
	return s, nil
}
