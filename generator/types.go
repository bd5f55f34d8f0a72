package generator

// Draft holds the user-entered fields of a post before generation.
type Draft struct {
	Topic          string `json:"topic"`
	Category       string `json:"category"`
	Region         string `json:"region"`
	TargetAudience string `json:"target_audience"`
	// Tone only applies to the freeform flow: friendly, concise or pro.
	Tone string `json:"tone,omitempty"`
}

// QnA is one question/answer pair of the FAQ section.
type QnA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Payload is the structured response of the text-generation step.
// ContentTemplate carries <!-- IMAGE_n --> markers aligned with ImagePrompts.
type Payload struct {
	Title           string   `json:"title"`
	ContentTemplate string   `json:"contentTemplate"`
	ImagePrompts    []string `json:"imagePrompts"`
	Tags            []string `json:"tags"`
	QnA             []QnA    `json:"qna"`
}

// Image is one generated illustration, either a data URI or a hosted URL.
type Image struct {
	Src      string `json:"src"`
	MIMEType string `json:"mime_type,omitempty"`
}

// Post is the final composed artifact. A new generation replaces it wholesale.
type Post struct {
	Topic   string   `json:"topic"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	QnA     []QnA    `json:"qna"`
	// Markdown is only produced by the freeform flow.
	Markdown string `json:"markdown,omitempty"`
}

// Credential is the caller's API key plus the selected text model.
type Credential struct {
	APIKey string
	Model  string
}
