package generator

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestExtractFreeform(t *testing.T) {
	raw := `<h2>ETF 입문</h2>
<p>본문입니다.</p>
<md>## ETF 입문

**본문**입니다.</md>
<tags>#ETF, #재테크 #초보투자,</tags>`

	res, err := ExtractFreeform(raw)
	if err != nil {
		t.Fatalf("ExtractFreeform failed: %v", err)
	}
	if res.Title != "ETF 입문" {
		t.Errorf("Title = %q", res.Title)
	}
	if strings.Contains(res.HTML, "<md>") || strings.Contains(res.HTML, "<tags>") || strings.Contains(res.HTML, "#재테크") {
		t.Errorf("sentinel sections leaked into html: %q", res.HTML)
	}
	if !strings.Contains(res.HTML, "<p>본문입니다.</p>") {
		t.Errorf("html body missing paragraph: %q", res.HTML)
	}
	if res.Markdown != "## ETF 입문\n\n**본문**입니다." {
		t.Errorf("Markdown = %q", res.Markdown)
	}
	if want := []string{"ETF", "재테크", "초보투자"}; !reflect.DeepEqual(res.Tags, want) {
		t.Errorf("Tags = %v, want %v", res.Tags, want)
	}
}

func TestExtractFreeformWithoutSentinels(t *testing.T) {
	res, err := ExtractFreeform("<p>only html</p>")
	if err != nil {
		t.Fatalf("ExtractFreeform failed: %v", err)
	}
	if res.Markdown != "" || len(res.Tags) != 0 {
		t.Errorf("expected no markdown or tags, got %+v", res)
	}
	if res.HTML != "<p>only html</p>" {
		t.Errorf("HTML = %q", res.HTML)
	}
}

func TestExtractFreeformMarkdownOnlyRendersHTML(t *testing.T) {
	res, err := ExtractFreeform("<md># 제목\n\n내용</md>")
	if err != nil {
		t.Fatalf("ExtractFreeform failed: %v", err)
	}
	if !strings.Contains(res.HTML, "<h1>제목</h1>") {
		t.Errorf("expected html rendered from markdown, got %q", res.HTML)
	}
	if res.Title != "제목" {
		t.Errorf("Title = %q", res.Title)
	}
}

func TestExtractFreeformMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":         "   ",
		"only tags":     "<tags>#a, #b</tags>",
		"only empty md": "<md></md>",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var se *ShapeError
			if _, err := ExtractFreeform(raw); !errors.As(err, &se) {
				t.Fatalf("expected ShapeError, got %v", err)
			}
		})
	}
}

func TestExtractFreeformUnclosedSentinelStaysInHTML(t *testing.T) {
	res, err := ExtractFreeform("<p>body</p><md>never closed")
	if err != nil {
		t.Fatalf("ExtractFreeform failed: %v", err)
	}
	if res.Markdown != "" {
		t.Errorf("unclosed <md> must not produce markdown, got %q", res.Markdown)
	}
}

func TestFreeformGeneratorUsesCoverFallback(t *testing.T) {
	var prompt Prompt
	fb := &fakeBackend{
		complete: func(p Prompt) (string, error) {
			prompt = p
			return "<h2>제목</h2><md>md</md><tags>#a</tags>", nil
		},
		image: func(string) (Image, error) { return Image{}, errUpstream },
	}
	g := &FreeformGenerator{LLM: fb, Images: fb}

	post, err := g.Generate(context.Background(), Draft{Topic: "ETF", Category: "재테크", Tone: "pro"}, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(prompt.User, CoverFallbackURL) {
		t.Errorf("prompt should embed the fallback cover url")
	}
	if !strings.Contains(prompt.User, "톤: 전문적") {
		t.Errorf("prompt should carry the tone label")
	}
	if post.Title != "제목" || post.Markdown != "md" || !reflect.DeepEqual(post.Tags, []string{"a"}) {
		t.Errorf("unexpected post %+v", post)
	}
}

func TestFreeformGeneratorRequiresFields(t *testing.T) {
	g := &FreeformGenerator{LLM: &fakeBackend{}}
	for _, d := range []Draft{
		{Topic: "t", Tone: "pro"},
		{Category: "c", Tone: "pro"},
		{Topic: "t", Category: "c"},
	} {
		var ve *ValidationError
		if _, err := g.Generate(context.Background(), d, nil); !errors.As(err, &ve) {
			t.Errorf("Generate(%+v) = %v, want ValidationError", d, err)
		}
	}
}

func TestFreeformGeneratorTransportError(t *testing.T) {
	fb := &fakeBackend{complete: func(Prompt) (string, error) { return "", errUpstream }}
	g := &FreeformGenerator{LLM: fb}

	_, err := g.Generate(context.Background(), Draft{Topic: "t", Category: "c", Tone: "friendly"}, nil)
	var re *RequestError
	if !errors.As(err, &re) || !errors.Is(err, errUpstream) {
		t.Fatalf("expected RequestError wrapping upstream error, got %v", err)
	}
}

func TestFreeformGeneratorReportsStages(t *testing.T) {
	fb := &fakeBackend{complete: func(Prompt) (string, error) { return "<h2>t</h2>", nil }}
	g := &FreeformGenerator{LLM: fb, Images: fb}

	var stages []State
	if _, err := g.Generate(context.Background(), Draft{Topic: "t", Category: "c", Tone: "pro"}, func(s State) {
		stages = append(stages, s)
	}); err != nil {
		t.Fatal(err)
	}
	want := []State{StateGeneratingImages, StateGeneratingText}
	if !reflect.DeepEqual(stages, want) {
		t.Errorf("stages = %v, want %v", stages, want)
	}
}
