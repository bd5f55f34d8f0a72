package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

type fakeBackend struct {
	complete   func(Prompt) (string, error)
	image      func(prompt string) (Image, error)
	textCalls  atomic.Int32
	imageCalls atomic.Int32
}

func (f *fakeBackend) Complete(_ context.Context, p Prompt) (string, error) {
	f.textCalls.Add(1)
	return f.complete(p)
}

func (f *fakeBackend) GenerateImage(ctx context.Context, prompt string) (Image, error) {
	f.imageCalls.Add(1)
	if f.image != nil {
		return f.image(prompt)
	}
	return Image{Src: "https://img.example/" + prompt}, nil
}

func (f *fakeBackend) factory(calls *atomic.Int32) BackendFactory {
	return func(context.Context, Credential) (Backend, error) {
		if calls != nil {
			calls.Add(1)
		}
		return f, nil
	}
}

// etfPayload mirrors a well-formed response for the "초보자를 위한 ETF" example.
func etfPayload() Payload {
	var body strings.Builder
	body.WriteString("<p>ETF 입문</p>\n")
	for i := 1; i <= 3; i++ {
		body.WriteString(fmt.Sprintf("<h2>파트 %d</h2>\n%s\n", i, Placeholder(i)))
	}
	tags := make([]string, 10)
	for i := range tags {
		tags[i] = fmt.Sprintf("ETF%d", i+1)
	}
	qna := make([]QnA, 7)
	for i := range qna {
		qna[i] = QnA{Question: fmt.Sprintf("Q%d", i+1), Answer: fmt.Sprintf("A%d", i+1)}
	}
	return Payload{
		Title:           "초보자를 위한 ETF 완벽 가이드",
		ContentTemplate: body.String(),
		ImagePrompts:    []string{"first", "second", "third"},
		Tags:            tags,
		QnA:             qna,
	}
}

func mustJSON(v any) string {
	out, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(out)
}

// delayedImages completes later prompts first to exercise result ordering.
func delayedImages(prompt string) (Image, error) {
	switch prompt {
	case "first":
		time.Sleep(30 * time.Millisecond)
	case "second":
		time.Sleep(15 * time.Millisecond)
	}
	return Image{Src: "data:image/jpeg;base64," + prompt}, nil
}

var errUpstream = errors.New("upstream exploded")
