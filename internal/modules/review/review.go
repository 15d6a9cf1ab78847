package review

import (
	"context"
	"time"

	"github.com/pawlink/core/internal/config"
	"github.com/pawlink/core/internal/models"
	"github.com/pawlink/core/internal/pkg/taskqueue"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options carries the analysis tunables. Zero-valued fields are invalid;
// build via DefaultOptions or OptionsFromConfig.
type Options struct {
	ChunkMaxMessages  int
	ChunkGap          time.Duration
	SlowReply         time.Duration
	ImageSampleLimit  int
	LookbackWindows   []time.Duration
	MinMessages       int
	MessageFetchLimit int
	CommentMaxRunes   int
	CacheTTL          time.Duration
}

// DefaultOptions returns the stock tunables.
func DefaultOptions() Options {
	return OptionsFromConfig(config.AnalysisConfig{})
}

// OptionsFromConfig converts the config section, normalizing unset fields.
func OptionsFromConfig(c config.AnalysisConfig) Options {
	c.Normalize()
	windows := make([]time.Duration, 0, len(c.LookbackWindowsHours))
	for _, h := range c.LookbackWindowsHours {
		windows = append(windows, time.Duration(h)*time.Hour)
	}
	return Options{
		ChunkMaxMessages:  c.ChunkMaxMessages,
		ChunkGap:          time.Duration(c.ChunkGapMinutes) * time.Minute,
		SlowReply:         time.Duration(c.SlowReplyMinutes) * time.Minute,
		ImageSampleLimit:  c.ImageSampleLimit,
		LookbackWindows:   windows,
		MinMessages:       c.MinMessages,
		MessageFetchLimit: c.MessageFetchLimit,
		CommentMaxRunes:   c.CommentMaxRunes,
		CacheTTL:          time.Duration(c.CacheTTLHours) * time.Hour,
	}
}

// Service owns the conversation-analysis and review-suggestion pipeline.
type Service struct {
	db      *gorm.DB
	store   MessageStore
	cache   ContextCache
	client  CompletionClient
	taskSvc *taskqueue.Service
	logger  *zap.Logger
	opts    Options
	builder *contextBuilder
}

// Option customizes the Service.
type Option func(*Service)

// WithLogger attaches a zap logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l.Named("ReviewService")
		}
	}
}

// WithStore overrides the message store (tests inject fakes here).
func WithStore(store MessageStore) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// NewService wires the pipeline. client and cache are required collaborators;
// taskSvc may be nil when background context building is disabled.
func NewService(db *gorm.DB, client CompletionClient, cache ContextCache, taskSvc *taskqueue.Service, opts Options, o ...Option) *Service {
	s := &Service{
		db:      db,
		cache:   cache,
		client:  client,
		taskSvc: taskSvc,
		logger:  zap.NewNop(),
		opts:    opts,
	}
	if db != nil {
		s.store = NewMessageStore(db)
	}
	for _, fn := range o {
		fn(s)
	}
	s.builder = newContextBuilder(s)
	return s
}

// RunBuilder starts the background context-builder worker; it exits when ctx
// is cancelled.
func (s *Service) RunBuilder(ctx context.Context) {
	s.builder.Run(ctx)
}

// Profile loads the minimal user info used in prompts.
func (s *Service) Profile(uid string) (Profile, error) {
	var u models.UserModel
	if err := s.db.Select("id, display_name, role").First(&u, "id = ?", uid).Error; err != nil {
		return Profile{}, err
	}
	return Profile{UID: u.ID, DisplayName: u.DisplayName, Role: u.Role}, nil
}
