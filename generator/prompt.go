package generator

import (
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const (
	topicCount    = 10
	imageCount    = 3
	qnaCount      = 7
	tagCount      = 10
	postMinLength = 2000
	postMaxLength = 2500
)

var defaultTemperature float32 = 0.7

// BuildTopicPrompt asks for SEO blog titles for a category.
func BuildTopicPrompt(category string) Prompt {
	user := fmt.Sprintf(`You are an expert SEO copywriter specializing in creating viral content in Korea. `+
		`For the blog category "%s", generate a list of %d highly engaging, SEO-optimized, and clickable blog post titles. `+
		`Return the response as a single JSON object with a key "topics" which is an array of %d titles in Korean.`,
		category, topicCount, topicCount)
	return Prompt{User: user, Schema: topicSchema()}
}

func topicSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"topics": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required: []string{"topics"},
	}
}

// BuildPostPrompt asks for the full structured post payload.
func BuildPostPrompt(d Draft) Prompt {
	var sb strings.Builder
	sb.WriteString("You are an expert AI Blog Post Generator. Create a comprehensive, high-quality, and SEO-optimized blog post in Korean based on the following details. ")
	sb.WriteString("Adhere strictly to the user's \"Prompt and Structure Guide\".\n\n")
	sb.WriteString("**Post Details:**\n")
	sb.WriteString(fmt.Sprintf("- Topic: %q\n", d.Topic))
	sb.WriteString(fmt.Sprintf("- Category: %q\n", d.Category))
	sb.WriteString(fmt.Sprintf("- Region Focus: %q\n", d.Region))
	sb.WriteString(fmt.Sprintf("- Target Audience: %q\n\n", d.TargetAudience))
	sb.WriteString("**Generation Instructions:**\n")
	sb.WriteString("1. **Title:** Create a final, compelling, SEO-friendly title based on the user's topic.\n")
	sb.WriteString("2. **Content Structure (Ki-Seung-Jeon-Gyeol):**\n")
	sb.WriteString(fmt.Sprintf("   - The entire post should be between %d and %d Korean characters.\n", postMinLength, postMaxLength))

	markers := make([]string, imageCount)
	for i := range markers {
		markers[i] = "'" + Placeholder(i+1) + "'"
	}
	sb.WriteString(fmt.Sprintf("3. **Images:** Generate prompts for THREE (%d) distinct, contextually relevant images. "+
		"Placeholders for these images in the content template should be %s.\n", imageCount, strings.Join(markers, ", ")))
	sb.WriteString(fmt.Sprintf("4. **Q&A Section:** Create a section with %d relevant questions and their answers to appear after the conclusion.\n", qnaCount))
	sb.WriteString(fmt.Sprintf("5. **Tags:** Generate %d powerful, high-traffic, SEO-optimized tags related to the content.\n\n", tagCount))
	sb.WriteString("**Output Format:**\n")
	sb.WriteString("Return a single JSON object. Do not include any markdown formatting (e.g., ```json). The structure must be exactly as follows:\n")
	sb.WriteString(`{
  "title": "Final SEO-optimized title",
  "contentTemplate": "The full blog post content in HTML string format. Do NOT include <html>, <head>, or <body> tags.",
  "imagePrompts": ["A descriptive prompt for image 1", "A descriptive prompt for image 2", "A descriptive prompt for image 3"],
  "tags": ["tag1", "tag2", ... , "tag10"],
  "qna": [{"question": "Q1", "answer": "A1"}, ..., {"question": "Q7", "answer": "A7"}]
}`)

	return Prompt{
		User:        sb.String(),
		Schema:      postSchema(),
		Temperature: &defaultTemperature,
	}
}

func postSchema() *genai.Schema {
	str := func() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":           str(),
			"contentTemplate": str(),
			"imagePrompts":    {Type: genai.TypeArray, Items: str()},
			"tags":            {Type: genai.TypeArray, Items: str()},
			"qna": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"question": str(),
						"answer":   str(),
					},
					Required: []string{"question", "answer"},
				},
			},
		},
		Required: payloadKeys,
	}
}

var toneLabels = map[string]string{
	"friendly": "친근한",
	"concise":  "간결한",
	"pro":      "전문적",
}

// BuildFreeformPrompt asks for one free-text answer carrying HTML, <md> and <tags> sections.
func BuildFreeformPrompt(d Draft, coverURL string) Prompt {
	tone, ok := toneLabels[d.Tone]
	if !ok {
		tone = toneLabels["friendly"]
	}
	var sb strings.Builder
	sb.WriteString("너는 전문 블로그 작가야. 아래 내용을 바탕으로 HTML 형식의 블로그 글을 작성해줘.\n\n")
	sb.WriteString(fmt.Sprintf("카테고리: %s\n", d.Category))
	sb.WriteString(fmt.Sprintf("주제: %s\n", d.Topic))
	sb.WriteString(fmt.Sprintf("톤: %s\n\n", tone))
	sb.WriteString("조건:\n")
	sb.WriteString("- 제목 포함\n")
	sb.WriteString("- 서론 > 본문(소제목 3개) > 결론 형식\n")
	sb.WriteString("- 대표 이미지는 아래 URL을 사용:\n")
	sb.WriteString(fmt.Sprintf("  <img src='%s' />\n", coverURL))
	sb.WriteString("- 본문 이미지는 <img src='https://aigallery.app/api/img?prompt=내용요약&size=medium' /> 형식으로 넣기\n")
	sb.WriteString("- FAQ 2~3개 포함\n")
	sb.WriteString("- 관련 태그 10개를 해시태그(#) 형식으로 나열해줘. 결과 하단에 <tags>#태그1, #태그2, ...</tags> 형식으로 포함해줘.\n")
	sb.WriteString("- 전체를 HTML로 마크업해서 반환해줘.\n")
	sb.WriteString("- 그리고 동일한 내용을 markdown으로도 작성해서 <md>...</md> 안에 넣어줘.")
	return Prompt{User: sb.String(), Temperature: &defaultTemperature}
}

// BuildProxyPrompt is the article prompt used by the /api/generate proxy.
func BuildProxyPrompt(category, title, style string, tags []string) Prompt {
	if category == "" {
		category = "일반"
	}
	if style == "" {
		style = "친근한"
	}
	var sb strings.Builder
	sb.WriteString("너는 블로그 전문작가야.\n")
	sb.WriteString("아래 정보를 반영해 글을 작성해줘(한국어).\n\n")
	sb.WriteString(fmt.Sprintf("카테고리: %s\n", category))
	sb.WriteString(fmt.Sprintf("제목: %s\n", title))
	sb.WriteString(fmt.Sprintf("문체/톤: %s\n", style))
	sb.WriteString(fmt.Sprintf("태그(참고): %s\n\n", strings.Join(tags, ", ")))
	sb.WriteString("형식 요구:\n")
	sb.WriteString("- 제목(h2) 포함\n")
	sb.WriteString("- 서론 1단락\n")
	sb.WriteString("- 본문 소제목 3개와 각 2~3문단\n")
	sb.WriteString("- 결론 1단락\n")
	sb.WriteString("- FAQ 2~3개 (Q와 A 명확히)\n")
	sb.WriteString("- HTML이 아니라 일반 텍스트(마크다운 느낌)로 자연스럽게 작성")
	return Prompt{User: sb.String(), Temperature: &defaultTemperature}
}
