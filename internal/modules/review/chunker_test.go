package review

import (
	"strings"
	"testing"
	"time"

	"github.com/pawlink/core/internal/models"
)

var chunkBase = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func msgAt(at time.Time, sender, msgType, content string) models.MessageModel {
	m := models.MessageModel{
		SenderID: sender,
		Type:     msgType,
		Content:  content,
	}
	m.ID = sender + "-" + at.Format("150405.000")
	m.CreatedAt = at
	return m
}

func textAt(at time.Time, sender, content string) models.MessageModel {
	return msgAt(at, sender, models.MessageText, content)
}

func TestBuildChunksEmpty(t *testing.T) {
	chunks := buildChunks(nil, "r", "t", DefaultOptions())
	if chunks == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(chunks) != 0 {
		t.Fatalf("expected 0 chunks, got %d", len(chunks))
	}
}

func TestBuildChunksSplitsOnMaxMessages(t *testing.T) {
	opts := DefaultOptions()
	var msgs []models.MessageModel
	for i := 0; i < 16; i++ {
		msgs = append(msgs, textAt(chunkBase.Add(time.Duration(i)*time.Minute), "r", "hello"))
	}

	chunks := buildChunks(msgs, "r", "t", opts)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].MessageCount != 15 || chunks[1].MessageCount != 1 {
		t.Errorf("expected 15+1 split, got %d+%d", chunks[0].MessageCount, chunks[1].MessageCount)
	}
}

func TestBuildChunksGapBoundary(t *testing.T) {
	opts := DefaultOptions()

	// A gap of exactly the threshold must not split.
	exact := []models.MessageModel{
		textAt(chunkBase, "r", "morning"),
		textAt(chunkBase.Add(opts.ChunkGap), "t", "hi"),
	}
	if got := len(buildChunks(exact, "r", "t", opts)); got != 1 {
		t.Errorf("gap == threshold: expected 1 chunk, got %d", got)
	}

	over := []models.MessageModel{
		textAt(chunkBase, "r", "morning"),
		textAt(chunkBase.Add(opts.ChunkGap+time.Minute), "t", "hi"),
	}
	if got := len(buildChunks(over, "r", "t", opts)); got != 2 {
		t.Errorf("gap > threshold: expected 2 chunks, got %d", got)
	}
}

func TestBuildChunksCountsPartition(t *testing.T) {
	opts := DefaultOptions()
	var msgs []models.MessageModel
	at := chunkBase
	for i := 0; i < 40; i++ {
		sender := "r"
		if i%3 == 0 {
			sender = "t"
		}
		step := time.Duration(i%7) * 40 * time.Minute
		at = at.Add(step)
		msgs = append(msgs, textAt(at, sender, "message"))
	}

	chunks := buildChunks(msgs, "r", "t", opts)
	total := 0
	for _, c := range chunks {
		total += c.MessageCount
		if c.ReviewerMessageCount+c.TargetMessageCount != c.MessageCount {
			t.Errorf("chunk counts do not add up: %d + %d != %d",
				c.ReviewerMessageCount, c.TargetMessageCount, c.MessageCount)
		}
	}
	if total != len(msgs) {
		t.Errorf("chunks cover %d messages, input had %d", total, len(msgs))
	}
}

func TestChunkTopicsAndSentiment(t *testing.T) {
	msgs := []models.MessageModel{
		textAt(chunkBase, "r", "Can you walk Buddy tomorrow morning?"),
		textAt(chunkBase.Add(2*time.Minute), "t", "Sure! The park route was great last time, he loved it"),
		textAt(chunkBase.Add(4*time.Minute), "t", "Thanks for the treats by the way"),
	}
	chunks := buildChunks(msgs, "r", "t", DefaultOptions())
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]

	wantTopics := map[string]bool{"scheduling": true, "walking": true, "care": true}
	for _, topic := range c.Topics {
		delete(wantTopics, topic)
	}
	if len(wantTopics) != 0 {
		t.Errorf("missing topics %v in %v", wantTopics, c.Topics)
	}
	if c.Sentiment != SentimentPositive {
		t.Errorf("expected positive sentiment, got %s", c.Sentiment)
	}
	if c.UrgencyLevel != UrgencyLow {
		t.Errorf("expected low urgency, got %s", c.UrgencyLevel)
	}
}

func TestChunkUrgency(t *testing.T) {
	urgent := []models.MessageModel{
		textAt(chunkBase, "r", "Buddy got hurt at the park, come immediately"),
	}
	if c := buildChunks(urgent, "r", "t", DefaultOptions())[0]; c.UrgencyLevel != UrgencyHigh {
		t.Errorf("expected high urgency, got %s", c.UrgencyLevel)
	}

	shouty := []models.MessageModel{
		textAt(chunkBase, "r", "WHERE ARE you!!! answer!"),
	}
	if c := buildChunks(shouty, "r", "t", DefaultOptions())[0]; c.UrgencyLevel != UrgencyMedium {
		t.Errorf("expected medium urgency, got %s", c.UrgencyLevel)
	}
}

func TestRenderTranscriptRolesAndSlowReply(t *testing.T) {
	opts := DefaultOptions()
	msgs := []models.MessageModel{
		textAt(chunkBase, "r", "heading out now"),
		textAt(chunkBase.Add(45*time.Minute), "t", "sorry, just saw this"),
		msgAt(chunkBase.Add(46*time.Minute), "t", models.MessageImage, "https://cdn.example.com/1.jpg"),
	}

	text := renderTranscript(msgs, "r", opts)
	if !strings.Contains(text, "REVIEWER: heading out now") {
		t.Errorf("reviewer line missing:\n%s", text)
	}
	if !strings.Contains(text, "TARGET: sorry, just saw this") {
		t.Errorf("target line missing:\n%s", text)
	}
	if !strings.Contains(text, "(replied after 45m)") {
		t.Errorf("slow reply annotation missing:\n%s", text)
	}
	if !strings.Contains(text, "[sent a photo]") {
		t.Errorf("image placeholder missing:\n%s", text)
	}
	// Fast replies must not be annotated.
	if strings.Contains(text, "(replied after 1m)") {
		t.Errorf("fast reply should not be annotated:\n%s", text)
	}
}
