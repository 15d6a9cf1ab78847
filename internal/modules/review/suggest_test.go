package review

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pawlink/core/internal/models"
)

type fakeClient struct {
	mu          sync.Mutex
	textCalls   []string
	visionCalls []string

	textFn   func(prompt string) (string, error)
	visionFn func(imageURL string) (string, error)
}

func (f *fakeClient) CompleteText(_ context.Context, prompt string, _ int) (string, error) {
	f.mu.Lock()
	f.textCalls = append(f.textCalls, prompt)
	f.mu.Unlock()
	if f.textFn == nil {
		return "", errors.New("no text handler")
	}
	return f.textFn(prompt)
}

func (f *fakeClient) CompleteVision(_ context.Context, _, imageURL string, _ int) (string, error) {
	f.mu.Lock()
	f.visionCalls = append(f.visionCalls, imageURL)
	f.mu.Unlock()
	if f.visionFn == nil {
		return "", errors.New("no vision handler")
	}
	return f.visionFn(imageURL)
}

func (f *fakeClient) visionCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visionCalls)
}

func (f *fakeClient) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.textCalls) == 0 {
		return ""
	}
	return f.textCalls[len(f.textCalls)-1]
}

type fakeStore struct {
	fetch func(since time.Time) []models.MessageModel
}

func (f *fakeStore) FetchMessagesSince(_ context.Context, _, _ string, since time.Time, _ int) ([]models.MessageModel, error) {
	if f.fetch == nil {
		return []models.MessageModel{}, nil
	}
	return f.fetch(since), nil
}

func newTestService(client CompletionClient, store MessageStore) *Service {
	return NewService(nil, client, NewMemoryContextCache(), nil, DefaultOptions(), WithStore(store))
}

func testRequest() SuggestionRequest {
	return SuggestionRequest{
		ReviewerID: "r",
		TargetID:   "t",
		Reviewer:   Profile{UID: "r", DisplayName: "Alice", Role: "owner"},
		Target:     Profile{UID: "t", DisplayName: "Bob", Role: "walker"},
	}
}

func recentMessages(since time.Time) []models.MessageModel {
	base := time.Now().Add(-2 * time.Hour)
	return []models.MessageModel{
		textAt(base, "r", "Can you walk Buddy at noon?"),
		textAt(base.Add(5*time.Minute), "t", "On my way"),
		textAt(base.Add(70*time.Minute), "t", "All done, he was great"),
	}
}

func TestGenerateSuggestionHappyPath(t *testing.T) {
	client := &fakeClient{
		textFn: func(string) (string, error) {
			return `{"rating": 4.5, "comment": "Bob was punctual and kept me updated.", "highlights": ["punctual", "good updates"], "reasoning": "Fast replies throughout."}`, nil
		},
	}
	svc := newTestService(client, &fakeStore{fetch: recentMessages})

	sug := svc.GenerateReviewSuggestion(context.Background(), testRequest())
	if sug.SuggestedRating != 4.5 {
		t.Errorf("expected rating 4.5, got %f", sug.SuggestedRating)
	}
	if sug.SuggestedComment != "Bob was punctual and kept me updated." {
		t.Errorf("unexpected comment: %q", sug.SuggestedComment)
	}
	if len(sug.ConversationHighlights) != 2 {
		t.Errorf("expected 2 highlights, got %v", sug.ConversationHighlights)
	}
	if sug.AnalysisReasoning == "" {
		t.Error("expected reasoning to be set")
	}
}

func TestGenerateSuggestionDefaultOnCompletionError(t *testing.T) {
	client := &fakeClient{
		textFn: func(string) (string, error) { return "", errors.New("upstream down") },
	}
	svc := newTestService(client, &fakeStore{fetch: recentMessages})

	sug := svc.GenerateReviewSuggestion(context.Background(), testRequest())
	if sug.SuggestedRating != defaultRating {
		t.Errorf("expected default rating %f, got %f", defaultRating, sug.SuggestedRating)
	}
	if sug.SuggestedComment != defaultComment {
		t.Errorf("expected default comment, got %q", sug.SuggestedComment)
	}
	// Analysis still ran, so insights survive as highlights.
	if len(sug.ConversationHighlights) == 0 {
		t.Error("expected key insights as highlight fallback")
	}
}

func TestGenerateSuggestionRecoversFromPanic(t *testing.T) {
	client := &fakeClient{
		textFn: func(string) (string, error) { panic("model client bug") },
	}
	svc := newTestService(client, &fakeStore{fetch: recentMessages})

	sug := svc.GenerateReviewSuggestion(context.Background(), testRequest())
	if sug == nil {
		t.Fatal("expected a suggestion despite panic")
	}
	if sug.SuggestedRating != defaultRating {
		t.Errorf("expected default rating after panic, got %f", sug.SuggestedRating)
	}
}

func TestGenerateSuggestionEndpoint500(t *testing.T) {
	// End to end through the real HTTP client: a 500 from the completion
	// endpoint still yields a well-formed default suggestion.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := compatTestClient(srv.URL)
	svc := NewService(nil, client, NewMemoryContextCache(), nil, DefaultOptions(),
		WithStore(&fakeStore{fetch: recentMessages}))

	sug := svc.GenerateReviewSuggestion(context.Background(), testRequest())
	if sug == nil {
		t.Fatal("expected a suggestion")
	}
	if sug.SuggestedRating != defaultRating {
		t.Errorf("expected default rating, got %f", sug.SuggestedRating)
	}
	if sug.SuggestedComment == "" {
		t.Error("expected non-empty comment")
	}
}

func TestGenerateSuggestionRatingClamp(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{`{"rating": 7, "comment": "x"}`, 5.0},
		{`{"rating": 0.2, "comment": "x"}`, 1.0},
		{`{"rating": 4.4444, "comment": "x"}`, 4.4},
		{`{"rating": "3.8", "comment": "x"}`, 3.8},
	}
	for _, tc := range cases {
		client := &fakeClient{textFn: func(string) (string, error) { return tc.raw, nil }}
		svc := newTestService(client, &fakeStore{fetch: recentMessages})
		sug := svc.GenerateReviewSuggestion(context.Background(), testRequest())
		if sug.SuggestedRating != tc.want {
			t.Errorf("raw %s: expected rating %f, got %f", tc.raw, tc.want, sug.SuggestedRating)
		}
	}
}

func TestGenerateSuggestionCommentTruncation(t *testing.T) {
	long := strings.Repeat("великолепно ", 60) // multibyte, well past the cap
	client := &fakeClient{
		textFn: func(string) (string, error) {
			return `{"rating": 4, "comment": "` + long + `"}`, nil
		},
	}
	svc := newTestService(client, &fakeStore{fetch: recentMessages})

	sug := svc.GenerateReviewSuggestion(context.Background(), testRequest())
	if got := len([]rune(sug.SuggestedComment)); got > 400 {
		t.Errorf("comment exceeds 400 runes: %d", got)
	}
	if !strings.HasSuffix(sug.SuggestedComment, "...") {
		t.Errorf("truncated comment should end with ellipsis: %q", sug.SuggestedComment)
	}
}

func TestGenerateSuggestionPartialJSON(t *testing.T) {
	client := &fakeClient{
		textFn: func(string) (string, error) { return `{"rating": 4.0}`, nil },
	}
	svc := newTestService(client, &fakeStore{fetch: recentMessages})

	sug := svc.GenerateReviewSuggestion(context.Background(), testRequest())
	if sug.SuggestedRating != 4.0 {
		t.Errorf("expected parsed rating 4.0, got %f", sug.SuggestedRating)
	}
	if sug.SuggestedComment != defaultComment {
		t.Errorf("missing comment should fall back to default, got %q", sug.SuggestedComment)
	}
}

func TestGenerateSuggestionMalformedJSON(t *testing.T) {
	client := &fakeClient{
		textFn: func(string) (string, error) { return "I think 4 stars would be fair!", nil },
	}
	svc := newTestService(client, &fakeStore{fetch: recentMessages})

	sug := svc.GenerateReviewSuggestion(context.Background(), testRequest())
	if sug.SuggestedRating != defaultRating || sug.SuggestedComment != defaultComment {
		t.Errorf("expected full default on malformed JSON, got %+v", sug)
	}
}

func TestGenerateSuggestionFencedJSON(t *testing.T) {
	client := &fakeClient{
		textFn: func(string) (string, error) {
			return "```json\n{\"rating\": 4.2, \"comment\": \"Solid walk.\"}\n```", nil
		},
	}
	svc := newTestService(client, &fakeStore{fetch: recentMessages})

	sug := svc.GenerateReviewSuggestion(context.Background(), testRequest())
	if sug.SuggestedRating != 4.2 || sug.SuggestedComment != "Solid walk." {
		t.Errorf("fenced JSON not parsed: %+v", sug)
	}
}

func TestGenerateSuggestionFastPathUsesCache(t *testing.T) {
	client := &fakeClient{
		textFn: func(string) (string, error) {
			return `{"rating": 4.8, "comment": "Always responsive."}`, nil
		},
	}
	storeCalled := false
	svc := newTestService(client, &fakeStore{fetch: func(time.Time) []models.MessageModel {
		storeCalled = true
		return nil
	}})

	key := ContextKey{ConversationID: "c1", ReviewerID: "r", TargetID: "t"}
	svc.cache.Put(&ConversationContext{
		Key:               key,
		Summary:           "[Mar 10 09:00] REVIEWER: see you at noon\n",
		ImageDescriptions: []string{"A happy golden retriever in the park"},
		MessageCount:      12,
		LastMessageAt:     time.Now(),
	})

	req := testRequest()
	req.ConversationID = "c1"
	sug := svc.GenerateReviewSuggestion(context.Background(), req)

	if storeCalled {
		t.Error("fast path should not hit the message store")
	}
	if !strings.Contains(client.lastPrompt(), "see you at noon") {
		t.Error("fast-path prompt should carry the cached summary")
	}
	if len(sug.ImageDescriptions) != 1 {
		t.Errorf("expected cached image descriptions, got %v", sug.ImageDescriptions)
	}
	if sug.SuggestedRating != 4.8 {
		t.Errorf("expected rating 4.8, got %f", sug.SuggestedRating)
	}
}

func TestGenerateSuggestionEmptyCacheFallsThrough(t *testing.T) {
	client := &fakeClient{
		textFn: func(string) (string, error) { return `{"rating": 4, "comment": "ok"}`, nil },
	}
	storeCalled := false
	svc := newTestService(client, &fakeStore{fetch: func(time.Time) []models.MessageModel {
		storeCalled = true
		return recentMessages(time.Time{})
	}})

	// Cached context with zero messages must not satisfy the fast path.
	key := ContextKey{ConversationID: "c1", ReviewerID: "r", TargetID: "t"}
	svc.cache.Put(&ConversationContext{Key: key})

	req := testRequest()
	req.ConversationID = "c1"
	svc.GenerateReviewSuggestion(context.Background(), req)
	if !storeCalled {
		t.Error("empty cached context should fall through to full analysis")
	}
}
