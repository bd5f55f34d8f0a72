package publisher

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ai_blog_post_writer/generator"
)

// PlainText renders the post without markup: title, body text, Q&A, tags.
func PlainText(post generator.Post) (string, error) {
	body, err := htmlText(post.Content)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(post.Title)
	b.WriteString("\n\n")
	if body != "" {
		b.WriteString(body)
		b.WriteString("\n\n")
	}
	if len(post.QnA) > 0 {
		b.WriteString("자주 묻는 질문 (Q&A)\n\n")
		for _, q := range post.QnA {
			b.WriteString("Q. ")
			b.WriteString(q.Question)
			b.WriteString("\nA. ")
			b.WriteString(q.Answer)
			b.WriteString("\n\n")
		}
	}
	for i, t := range post.Tags {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("#" + t)
	}
	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

// htmlText keeps one line per block element and drops images.
func htmlText(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, img").Remove()

	body := doc.Find("body")
	var lines []string
	body.Children().Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "ul" || goquery.NodeName(s) == "ol" {
			s.Find("li").Each(func(_ int, li *goquery.Selection) {
				if t := collapse(li.Text()); t != "" {
					lines = append(lines, "- "+t)
				}
			})
			return
		}
		if t := collapse(s.Text()); t != "" {
			lines = append(lines, t)
		}
	})
	if len(lines) == 0 {
		return collapse(body.Text()), nil
	}
	return strings.Join(lines, "\n"), nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Digest returns the first limit runes of the post's plain body text.
func Digest(post generator.Post, limit int) string {
	text, err := htmlText(post.Content)
	if err != nil {
		return ""
	}
	joined := collapse(text)
	runes := []rune(joined)
	if len(runes) <= limit {
		return joined
	}
	return string(runes[:limit])
}
