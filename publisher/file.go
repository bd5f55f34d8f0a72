package publisher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"ai_blog_post_writer/generator"
)

// Export formats.
const (
	FormatHTML     = "html"
	FormatMarkdown = "md"
	FormatText     = "text"
)

// Render produces the post in the requested format.
func Render(post generator.Post, format string) (string, error) {
	switch format {
	case FormatHTML, "":
		return ExportHTML(post)
	case FormatMarkdown:
		return ExportMarkdown(post)
	case FormatText:
		return PlainText(post)
	default:
		return "", fmt.Errorf("unknown export format %q", format)
	}
}

// Filename derives a file name from the topic, replacing path separators,
// reserved characters and control characters with '_'.
func Filename(topic, format string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\:*?"<>|`, r) || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(topic))
	name = strings.Trim(name, ". ")
	if name == "" {
		name = "post"
	}
	return name + "." + extension(format)
}

func extension(format string) string {
	switch format {
	case FormatMarkdown:
		return "md"
	case FormatText:
		return "txt"
	default:
		return "html"
	}
}

// WriteFile renders post and writes it to path. When path is a directory the
// file is named after the topic inside it. The written path is returned.
func WriteFile(path string, post generator.Post, format string) (string, error) {
	out, err := Render(post, format)
	if err != nil {
		return "", err
	}
	if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
		path = filepath.Join(path, Filename(post.Topic, format))
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
