package generator

import (
	"bytes"
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
)

// CoverFallbackURL is used when the cover image request fails in the freeform flow.
const CoverFallbackURL = "https://via.placeholder.com/512x512?text=DALL-E+실패"

var (
	mdBlockRe   = regexp.MustCompile(`(?is)<md>.*?</md>`)
	tagsBlockRe = regexp.MustCompile(`(?is)<tags>(.*?)</tags>`)
	anyTagRe    = regexp.MustCompile(`</?.*?>`)
	tagSplitRe  = regexp.MustCompile(`[#\s,]+`)
)

// FreeformResult is what ExtractFreeform recovers from a sentinel-tagged answer.
type FreeformResult struct {
	Title    string
	HTML     string
	Markdown string
	// Tags are stored without the leading '#'.
	Tags []string
}

// ExtractFreeform splits a free-text model answer into its HTML body, the
// <md> Markdown rendition and the <tags> list.
func ExtractFreeform(raw string) (FreeformResult, error) {
	if strings.TrimSpace(raw) == "" {
		return FreeformResult{}, &ShapeError{Op: opFreeform, Reason: "empty response"}
	}

	var res FreeformResult
	if m := mdBlockRe.FindString(raw); m != "" {
		res.Markdown = strings.TrimSpace(anyTagRe.ReplaceAllString(m, ""))
	}
	if m := tagsBlockRe.FindStringSubmatch(raw); len(m) == 2 {
		res.Tags = splitTags(m[1])
	}

	cleaned := mdBlockRe.ReplaceAllString(raw, "")
	cleaned = strings.TrimSpace(tagsBlockRe.ReplaceAllString(cleaned, ""))

	if cleaned == "" && res.Markdown == "" {
		return FreeformResult{}, &ShapeError{Op: opFreeform, Reason: "no html or <md> section found"}
	}
	if cleaned == "" {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(res.Markdown), &buf); err != nil {
			return FreeformResult{}, &ShapeError{Op: opFreeform, Reason: "render markdown", Err: err}
		}
		cleaned = buf.String()
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cleaned))
	if err != nil {
		return FreeformResult{}, &ShapeError{Op: opFreeform, Reason: "parse html", Err: err}
	}
	body, err := doc.Find("body").Html()
	if err != nil {
		return FreeformResult{}, &ShapeError{Op: opFreeform, Reason: "serialize html", Err: err}
	}
	res.HTML = strings.TrimSpace(body)
	res.Title = strings.TrimSpace(doc.Find("h1, h2").First().Text())
	return res, nil
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range tagSplitRe.Split(s, -1) {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// FreeformGenerator is the degraded PostGenerator: no schema, sentinel-tag extraction.
type FreeformGenerator struct {
	LLM    LLMClient
	Images ImageGenerator
}

// Generate requests the cover image first, then the text.
func (f *FreeformGenerator) Generate(ctx context.Context, d Draft, onStage StageFunc) (Post, error) {
	if err := requireFields(d.Category, "category", d.Topic, "topic", d.Tone, "tone"); err != nil {
		return Post{}, err
	}

	cover := CoverFallbackURL
	if f.Images != nil {
		onStage.notify(StateGeneratingImages)
		img, err := f.Images.GenerateImage(ctx, d.Category+" - "+d.Topic)
		if err != nil {
			slog.Warn("cover image failed, using placeholder", "topic", d.Topic, "error", err)
		} else {
			cover = img.Src
		}
	}

	onStage.notify(StateGeneratingText)
	raw, err := f.LLM.Complete(ctx, BuildFreeformPrompt(d, cover))
	if err != nil {
		return Post{}, &RequestError{Op: opFreeform, Err: err}
	}
	res, err := ExtractFreeform(raw)
	if err != nil {
		return Post{}, err
	}

	title := res.Title
	if title == "" {
		title = d.Topic
	}
	return Post{
		Topic:    d.Topic,
		Title:    title,
		Content:  res.HTML,
		Tags:     res.Tags,
		Markdown: res.Markdown,
	}, nil
}

// requireFields takes (value, name) pairs and reports the first blank one.
func requireFields(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i]) == "" {
			return &ValidationError{Field: pairs[i+1], Message: "is required"}
		}
	}
	return nil
}
