package signals

import (
	"context"
	"errors"
	"time"

	"maternityCare/business/oracle"
	"maternityCare/domain"
	"maternityCare/pkg/logger"
	"maternityCare/pkg/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type EventReader interface {
	ListRecent(ctx context.Context, userID string, since time.Time, limit int) ([]domain.BehavioralEvent, error)
}

type ChatReader interface {
	RecentTurns(ctx context.Context, userID string, limit int) ([]domain.ChatTurn, error)
}

type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (domain.Profile, error)
}

type SnapshotRepository interface {
	Create(ctx context.Context, snapshot *domain.SignalSnapshot) error
	Latest(ctx context.Context, userID string) (domain.SignalSnapshot, error)
}

// Escalator raises alerts for risky snapshots.
type Escalator interface {
	Escalate(ctx context.Context, snapshot domain.SignalSnapshot) (*domain.AlertRecord, error)
}

type Config struct {
	EventWindow  time.Duration
	MaxEvents    int
	MaxChatTurns int
}

type answerScores struct {
	Stress  *int `json:"stress" validate:"required,min=0,max=100"`
	Sleep   *int `json:"sleep" validate:"required,min=0,max=100"`
	Support *int `json:"support" validate:"required,min=0,max=100"`
	Mood    *int `json:"mood" validate:"required,min=0,max=100"`
}

// signalAnswer is the only shape accepted from an oracle.
type signalAnswer struct {
	Tags      []string      `json:"tags" validate:"required,dive,taxonomy"`
	Scores    *answerScores `json:"scores" validate:"required"`
	RiskLevel *int          `json:"risk_level" validate:"required,min=0,max=10"`
}

type signalService struct {
	events    EventReader
	chat      ChatReader
	profiles  ProfileReader
	snapshots SnapshotRepository
	escalator Escalator
	chain     *oracle.Chain
	check     func(*signalAnswer) error
	cfg       Config
	now       func() time.Time
}

func NewSignalService(
	events EventReader,
	chat ChatReader,
	profiles ProfileReader,
	snapshots SnapshotRepository,
	escalator Escalator,
	chain *oracle.Chain,
	cfg Config,
) *signalService {
	if cfg.EventWindow <= 0 {
		cfg.EventWindow = 14 * 24 * time.Hour
	}
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = 200
	}
	if cfg.MaxChatTurns <= 0 {
		cfg.MaxChatTurns = 30
	}

	validate := validator.New()
	_ = validate.RegisterValidation("taxonomy", func(fl validator.FieldLevel) bool {
		return domain.IsTaxonomyTag(fl.Field().String())
	})

	return &signalService{
		events:    events,
		chat:      chat,
		profiles:  profiles,
		snapshots: snapshots,
		escalator: escalator,
		chain:     chain,
		check:     oracle.StructCheck[signalAnswer](validate),
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *signalService) WithClock(now func() time.Time) *signalService {
	s.now = now
	return s
}

// BuildSignals analyses the user's recent activity and stores a new
// snapshot. Nothing is stored unless an oracle returned a fully valid
// answer. Alert escalation runs after the snapshot write and cannot fail
// the build.
func (s *signalService) BuildSignals(ctx context.Context, userID string) (domain.SignalSnapshot, error) {
	log := logger.With("user_id", userID, "stage", "build_signals")
	now := s.now()

	var (
		profile domain.Profile
		events  []domain.BehavioralEvent
		chat    []domain.ChatTurn
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.profiles.GetProfile(gctx, userID)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		evs, err := s.events.ListRecent(gctx, userID, now.Add(-s.cfg.EventWindow), s.cfg.MaxEvents)
		if err != nil {
			return err
		}
		events = evs
		return nil
	})
	g.Go(func() error {
		turns, err := s.chat.RecentTurns(gctx, userID, s.cfg.MaxChatTurns)
		if err != nil {
			return err
		}
		chat = turns
		return nil
	})
	if err := g.Wait(); err != nil {
		if !errors.Is(err, domain.ErrProfileNotFound) {
			log.Error("Failed to gather signal inputs", "error", err)
		}
		metrics.SignalBuilds.WithLabelValues("gather_failed", "").Inc()
		return domain.SignalSnapshot{}, err
	}

	req := oracle.Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(promptInput{Profile: profile, Events: events, Chat: chat, Now: now}),
		Temperature: 0.2,
		MaxTokens:   400,
	}

	res, err := oracle.Run(ctx, s.chain, req, s.check)
	if err != nil {
		log.Error("Signal oracles exhausted", "providers", s.chain.Providers(), "error", err)
		metrics.SignalBuilds.WithLabelValues("oracle_failed", "").Inc()
		return domain.SignalSnapshot{}, err
	}

	snapshot := toSnapshot(userID, res.Value, res.Provider, now)

	if err := s.snapshots.Create(ctx, &snapshot); err != nil {
		log.Error("Failed to persist signal snapshot", "provider", res.Provider, "error", err)
		metrics.SignalBuilds.WithLabelValues("store_failed", string(snapshot.Priority)).Inc()
		return domain.SignalSnapshot{}, err
	}

	metrics.SignalBuilds.WithLabelValues("ok", string(snapshot.Priority)).Inc()
	log.Info("signal snapshot created",
		"snapshot_id", snapshot.ID,
		"provider", res.Provider,
		"priority", snapshot.Priority,
		"risk_band", domain.BandFor(snapshot.RiskLevel),
	)

	if s.escalator != nil {
		if _, err := s.escalator.Escalate(ctx, snapshot); err != nil {
			// The snapshot stays; the next build re-raises the alert.
			metrics.AlertWriteFailures.Inc()
			log.Error("Alert write failed after snapshot write",
				"stage", "alert_write",
				"snapshot_id", snapshot.ID,
				"risk_level", snapshot.RiskLevel,
				"error", err,
			)
		}
	}

	return snapshot, nil
}

// Latest returns the newest stored snapshot.
func (s *signalService) Latest(ctx context.Context, userID string) (domain.SignalSnapshot, error) {
	return s.snapshots.Latest(ctx, userID)
}

func toSnapshot(userID string, a signalAnswer, provider string, now time.Time) domain.SignalSnapshot {
	tags := normalizeTags(a.Tags)
	scores := domain.Scores{
		Stress:  *a.Scores.Stress,
		Sleep:   *a.Scores.Sleep,
		Support: *a.Scores.Support,
		Mood:    *a.Scores.Mood,
	}

	return domain.SignalSnapshot{
		ID:        uuid.NewString(),
		UserID:    userID,
		Tags:      tags,
		Stress:    scores.Stress,
		Sleep:     scores.Sleep,
		Support:   scores.Support,
		Mood:      scores.Mood,
		Priority:  DerivePriority(tags, scores),
		RiskLevel: *a.RiskLevel,
		Provider:  provider,
		CreatedAt: now,
	}
}
