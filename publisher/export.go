// Package publisher turns a generated post into the artifacts the user takes
// away: the standalone HTML document, raw Markdown and plain text.
package publisher

import (
	"bytes"
	"errors"
	"html/template"

	"ai_blog_post_writer/generator"
)

// ErrNoMarkdown is returned when a Markdown export is requested for a post
// that was not produced by the freeform flow.
var ErrNoMarkdown = errors.New("post has no markdown rendition")

// The CSS below is literal template text, so html/template leaves it alone.
// Only the {{...}} actions are escaped.
const documentTemplate = `<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<meta name="description" content="{{.Description}}">
<title>{{.Title}}</title>
<style>
body { font-family: 'Noto Sans KR', sans-serif; background-color: #f8f9fa; }
h1 { font-size: 2.25rem; font-weight: 900; color: #111827; margin-bottom: 1.5rem; line-height: 1.2; }
p { font-size: 1.125rem; color: #374151; line-height: 1.8; margin-bottom: 1.5rem; }
h2 { font-size: 1.875rem; font-weight: 700; color: #1f2937; margin-top: 3rem; margin-bottom: 1rem; border-bottom: 2px solid #20c997; padding-bottom: 0.5rem; }
h3 { font-size: 1.5rem; font-weight: 700; color: #1f2937; margin-top: 2.5rem; margin-bottom: 1rem; }
.faq-container { margin-top: 3rem; }
.faq-item { border-bottom: 1px solid #e5e7eb; }
.faq-item input[type='checkbox'] { display: none; }
.faq-item label { display: flex; justify-content: space-between; align-items: center; padding: 1.5rem 0; font-size: 1.25rem; font-weight: 700; color: #1f2937; cursor: pointer; }
.faq-item label:hover { color: #20c997; }
.faq-item .faq-answer { max-height: 0; overflow: hidden; transition: max-height 0.3s ease-in-out; }
.faq-item .faq-answer p { padding: 0 0 1.5rem 0; margin: 0; font-size: 1.125rem; color: #374151; line-height: 1.8; }
.faq-item input[type='checkbox']:checked ~ .faq-answer { max-height: 500px; }
.faq-item .icon::before { content: '+'; font-size: 1.5rem; color: #9ca3af; transition: transform 0.3s; }
.faq-item input[type='checkbox']:checked ~ label .icon::before { transform: rotate(45deg); content: '+'; }
</style>
</head>
<body>
<div style="max-width: 800px; margin: 2rem auto; background-color: #ffffff; border-radius: 16px; padding: 2rem; box-shadow: 0 10px 25px -5px rgba(0, 0, 0, 0.1), 0 10px 10px -5px rgba(0, 0, 0, 0.04); border: 1px solid #e5e7eb; font-family: 'Noto Sans KR', sans-serif;">
<h1>{{.Title}}</h1>
{{.Content}}
<div class="faq-container">
<h2 style="font-size: 1.875rem; font-weight: 700; color: #1f2937; margin-top: 0; margin-bottom: 1rem; border-bottom: 2px solid #20c997; padding-bottom: 0.5rem;">자주 묻는 질문 (Q&amp;A)</h2>
{{range $i, $q := .QnA}}<div class="faq-item">
<input type="checkbox" id="faq-{{$i}}" />
<label for="faq-{{$i}}">
{{$q.Question}}
<span class="icon"></span>
</label>
<div class="faq-answer">
<p>{{$q.Answer}}</p>
</div>
</div>
{{end}}</div>
<div style="margin-top: 3rem; padding-top: 1.5rem; border-top: 1px solid #e5e7eb;">
{{range $i, $t := .Tags}}{{if $i}} {{end}}<a href="#" style="display: inline-block; background-color: #f1f3f5; color: #4b5563; padding: 0.5rem 1rem; margin-right: 0.5rem; margin-bottom: 0.5rem; border-radius: 9999px; font-size: 0.875rem; font-weight: 500; text-decoration: none;">#{{$t}}</a>{{end}}
</div>
</div>
</body>
</html>
`

var document = template.Must(template.New("document").Parse(documentTemplate))

// descriptionLength is the rune budget of the meta description.
const descriptionLength = 160

type documentData struct {
	Title       string
	Description string
	Content     template.HTML
	QnA         []generator.QnA
	Tags        []string
}

// ExportHTML renders post as a self-contained HTML document. The composed
// content is inserted verbatim; title, questions, answers and tags are escaped.
// The output depends only on post.
func ExportHTML(post generator.Post) (string, error) {
	var buf bytes.Buffer
	err := document.Execute(&buf, documentData{
		Title:       post.Title,
		Description: Digest(post, descriptionLength),
		Content:     template.HTML(post.Content),
		QnA:         post.QnA,
		Tags:        post.Tags,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ExportMarkdown returns the raw Markdown of a freeform post.
func ExportMarkdown(post generator.Post) (string, error) {
	if post.Markdown == "" {
		return "", ErrNoMarkdown
	}
	return post.Markdown, nil
}
