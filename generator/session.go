package generator

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// State is the generation phase shown to the user.
type State string

const (
	StateIdle             State = "IDLE"
	StateSuggesting       State = "SUGGESTING_TITLES"
	StateGeneratingText   State = "GENERATING_TEXT"
	StateGeneratingImages State = "GENERATING_IMAGES"
)

// Session 持有一次写作的界面状态：草稿、生成结果、推荐主题。
// Only one operation runs at a time; a second one fails with ErrBusy.
type Session struct {
	ID    string
	agent *Agent

	mu          sync.Mutex
	state       State
	draft       Draft
	post        *Post
	suggestions []string
	updatedAt   time.Time
}

// SessionView is a point-in-time copy of a session.
type SessionView struct {
	ID          string    `json:"session_id"`
	State       State     `json:"state"`
	Draft       Draft     `json:"draft"`
	Post        *Post     `json:"post,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewSession 创建 session，尚未生成稿件。
func NewSession(id string, agent *Agent) *Session {
	return &Session{
		ID:        id,
		agent:     agent,
		state:     StateIdle,
		updatedAt: time.Now(),
	}
}

func (s *Session) begin(st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return ErrBusy
	}
	s.state = st
	s.updatedAt = time.Now()
	return nil
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

func (s *Session) finish() { s.setState(StateIdle) }

// Suggest fetches topic suggestions for category.
func (s *Session) Suggest(ctx context.Context, cred Credential, category string) ([]string, error) {
	if err := s.begin(StateSuggesting); err != nil {
		return nil, err
	}
	defer s.finish()

	topics, err := s.agent.SuggestTopics(ctx, cred, category)
	if err != nil {
		slog.Warn("topic suggestion failed", "session_id", s.ID, "category", category, "error", err)
		return nil, err
	}
	s.mu.Lock()
	s.suggestions = topics
	s.draft.Category = category
	s.mu.Unlock()
	return topics, nil
}

// Propose 生成稿件。The previous post is cleared first and nothing is
// stored when any step fails.
func (s *Session) Propose(ctx context.Context, cred Credential, d Draft) (Post, error) {
	if err := s.begin(StateGeneratingText); err != nil {
		return Post{}, err
	}
	defer s.finish()
	s.prepare(d)

	post, err := s.agent.Generate(ctx, cred, d, s.setState)
	return s.store(post, err)
}

// ProposeFreeform runs the sentinel-tag fallback flow.
func (s *Session) ProposeFreeform(ctx context.Context, d Draft) (Post, error) {
	if err := s.begin(StateGeneratingText); err != nil {
		return Post{}, err
	}
	defer s.finish()
	s.prepare(d)

	post, err := s.agent.GenerateFreeform(ctx, d, s.setState)
	return s.store(post, err)
}

func (s *Session) prepare(d Draft) {
	s.mu.Lock()
	s.draft = d
	s.post = nil
	s.mu.Unlock()
}

func (s *Session) store(post Post, err error) (Post, error) {
	if err != nil {
		slog.Warn("post generation failed", "session_id", s.ID, "error", err)
		return Post{}, err
	}
	s.mu.Lock()
	s.post = &post
	s.mu.Unlock()
	slog.Info("post generated", "session_id", s.ID, "title", post.Title, "tags", len(post.Tags))
	return post, nil
}

// Reset discards the draft ("new post"). The last generated post stays until replaced.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return ErrBusy
	}
	s.draft = Draft{Category: s.draft.Category, Region: s.draft.Region, TargetAudience: s.draft.TargetAudience}
	s.updatedAt = time.Now()
	return nil
}

// Post returns the current generated post, if any.
func (s *Session) Post() (Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.post == nil {
		return Post{}, false
	}
	return *s.post, true
}

func (s *Session) Snapshot() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := SessionView{
		ID:          s.ID,
		State:       s.state,
		Draft:       s.draft,
		Suggestions: append([]string(nil), s.suggestions...),
		UpdatedAt:   s.updatedAt,
	}
	if s.post != nil {
		p := *s.post
		v.Post = &p
	}
	return v
}
