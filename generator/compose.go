package generator

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

const inlineImageStyle = "display: block; margin: 2rem auto; max-width: 100%; height: auto; border-radius: 1rem;"

var placeholderRe = regexp.MustCompile(`<!-- IMAGE_\d+ -->`)

// Placeholder returns the marker for the n-th image (1-indexed).
func Placeholder(n int) string {
	return fmt.Sprintf("<!-- IMAGE_%d -->", n)
}

// Compose replaces marker i with an <img> for images[i-1]. Only the first
// occurrence of each marker is rewritten; markers without an image stay as-is.
// The substitution is textual, so markers are expected at block level.
func Compose(template string, images []Image, prompts []string) string {
	out := template
	for i, img := range images {
		alt := ""
		if i < len(prompts) {
			alt = prompts[i]
		}
		tag := fmt.Sprintf(`<img src="%s" alt="%s" style="%s" />`,
			html.EscapeString(img.Src), html.EscapeString(alt), inlineImageStyle)
		out = strings.Replace(out, Placeholder(i+1), tag, 1)
	}
	return out
}
