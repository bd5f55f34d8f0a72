package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// MockLLM 一个简单的占位实现，便于本地调试，不调用外部模型。
// It answers topic, structured-post and freeform prompts with fixed content
// and produces tiny placeholder images.
type MockLLM struct{}

// MockFactory is a BackendFactory that always returns MockLLM.
func MockFactory(context.Context, Credential) (Backend, error) { return MockLLM{}, nil }

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	if prompt.Schema != nil {
		if _, ok := prompt.Schema.Properties["topics"]; ok {
			return mockTopics(), nil
		}
		return mockPayload(prompt.User), nil
	}
	var sb strings.Builder
	sb.WriteString("<h2>자동 생성 예시 제목</h2>\n")
	sb.WriteString("<p>프롬프트를 바탕으로 생성된 본문입니다.</p>\n")
	sb.WriteString("<md>## 자동 생성 예시 제목\n\n프롬프트를 바탕으로 생성된 본문입니다.</md>\n")
	sb.WriteString("<tags>#예시, #자동생성, #블로그</tags>")
	return sb.String(), nil
}

func (m MockLLM) GenerateImage(_ context.Context, prompt string) (Image, error) {
	// 1x1 transparent GIF; the prompt is kept in the bytes so images differ.
	gif := []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff!\xf9\x04\x01\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")
	return DataURIImage("image/gif", append(gif, prompt...)), nil
}

func mockTopics() string {
	topics := make([]string, topicCount)
	for i := range topics {
		topics[i] = fmt.Sprintf("추천 주제 %d", i+1)
	}
	out, _ := json.Marshal(map[string][]string{"topics": topics})
	return string(out)
}

func mockPayload(user string) string {
	var body strings.Builder
	prompts := make([]string, imageCount)
	for i := range prompts {
		prompts[i] = fmt.Sprintf("illustration %d", i+1)
		body.WriteString(fmt.Sprintf("<h2>소제목 %d</h2>\n<p>본문 단락 %d.</p>\n%s\n", i+1, i+1, Placeholder(i+1)))
	}
	tags := make([]string, tagCount)
	for i := range tags {
		tags[i] = fmt.Sprintf("태그%d", i+1)
	}
	qna := make([]QnA, qnaCount)
	for i := range qna {
		qna[i] = QnA{Question: fmt.Sprintf("질문 %d?", i+1), Answer: fmt.Sprintf("답변 %d.", i+1)}
	}
	title := "자동 생성 예시 제목"
	if i := strings.Index(user, "- Topic: "); i >= 0 {
		line := user[i+len("- Topic: "):]
		if j := strings.IndexByte(line, '\n'); j >= 0 {
			title = strings.Trim(line[:j], `"`)
		}
	}
	out, _ := json.Marshal(Payload{
		Title:           title,
		ContentTemplate: body.String(),
		ImagePrompts:    prompts,
		Tags:            tags,
		QnA:             qna,
	})
	return string(out)
}
