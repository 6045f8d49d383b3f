package plan

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"maternityCare/business/copywriter"
	"maternityCare/domain"
	"maternityCare/pkg/logger"
	"maternityCare/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

type SnapshotReader interface {
	Latest(ctx context.Context, userID string) (domain.SignalSnapshot, error)
}

type PreferenceReader interface {
	TopWeights(ctx context.Context, userID string, limit int) ([]domain.PreferenceWeight, error)
}

type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (domain.Profile, error)
}

type ContentCatalog interface {
	FindByTags(ctx context.Context, tagIDs []string, limit int) ([]domain.ContentItem, error)
	ListPublished(ctx context.Context, limit int) ([]domain.ContentItem, error)
}

type FrequencyRepository interface {
	Get(ctx context.Context, userID string) (domain.NotificationSettings, bool, error)
	EnsureDefault(ctx context.Context, userID string, defaultCap int, now time.Time) error
	DecrementFloor(ctx context.Context, userID string, now time.Time) (bool, error)
}

// PlanCache stores one plan per user per local day. Get returns
// domain.ErrPlanNotCached on a miss.
type PlanCache interface {
	Get(ctx context.Context, userID, day string) (domain.DailyPlan, error)
	Set(ctx context.Context, plan domain.DailyPlan, ttl time.Duration) error
}

type Composer interface {
	Compose(ctx context.Context, req copywriter.ComposeRequest) domain.Copy
}

type Config struct {
	Location          *time.Location
	DefaultFrequency  int
	RenderConcurrency int
	// Snapshots older than this are still used but flagged stale.
	StaleAfter time.Duration
}

type Deps struct {
	Snapshots   SnapshotReader
	Preferences PreferenceReader
	Profiles    ProfileReader
	Catalog     ContentCatalog
	Frequency   FrequencyRepository
	Cache       PlanCache
	Composer    Composer
	Templates   Catalog
}

type planService struct {
	Deps
	cfg Config
	now func() time.Time
}

func NewPlanService(deps Deps, cfg Config) *planService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.DefaultFrequency <= 0 {
		cfg.DefaultFrequency = 4
	}
	if cfg.RenderConcurrency <= 0 {
		cfg.RenderConcurrency = 2
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 7 * 24 * time.Hour
	}
	if deps.Templates == nil {
		deps.Templates = DefaultCatalog()
	}

	return &planService{
		Deps: deps,
		cfg:  cfg,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *planService) WithClock(now func() time.Time) *planService {
	s.now = now
	return s
}

// GetDailyPlan serves today's cached plan, composing it on the first call of
// the day.
func (s *planService) GetDailyPlan(ctx context.Context, userID string) (domain.DailyPlan, error) {
	start := time.Now()
	now := s.now()
	day := s.localDay(now)

	cached, err := s.Cache.Get(ctx, userID, day)
	if err == nil {
		metrics.PlanLatency.WithLabelValues("cache").Observe(time.Since(start).Seconds())
		return cached, nil
	}
	if !errors.Is(err, domain.ErrPlanNotCached) {
		logger.Warn("plan cache read failed, composing fresh plan", "user_id", userID, "error", err)
	}

	plan, err := s.composeAndStore(ctx, userID, now)
	if err != nil {
		return domain.DailyPlan{}, err
	}
	metrics.PlanLatency.WithLabelValues("compose").Observe(time.Since(start).Seconds())
	return plan, nil
}

// Replan composes from the data stored right now and replaces today's cached
// plan. It does not run a new signal analysis.
func (s *planService) Replan(ctx context.Context, userID string) (domain.DailyPlan, error) {
	start := time.Now()
	plan, err := s.composeAndStore(ctx, userID, s.now())
	if err != nil {
		return domain.DailyPlan{}, err
	}
	metrics.PlanLatency.WithLabelValues("replan").Observe(time.Since(start).Seconds())
	return plan, nil
}

func (s *planService) GetFrequency(ctx context.Context, userID string) (int, error) {
	settings, ok, err := s.Frequency.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return s.cfg.DefaultFrequency, nil
	}
	return settings.FrequencyCap, nil
}

// ShowLess lowers the user's frequency cap by one. At zero it reports
// changed=false. Plans already issued for today are left as they are.
func (s *planService) ShowLess(ctx context.Context, userID string) (domain.FrequencyOutcome, error) {
	now := s.now()

	if err := s.Frequency.EnsureDefault(ctx, userID, s.cfg.DefaultFrequency, now); err != nil {
		return domain.FrequencyOutcome{}, err
	}

	changed, err := s.Frequency.DecrementFloor(ctx, userID, now)
	if err != nil {
		return domain.FrequencyOutcome{}, err
	}

	settings, _, err := s.Frequency.Get(ctx, userID)
	if err != nil {
		return domain.FrequencyOutcome{}, err
	}

	outcome := "decremented"
	if !changed {
		outcome = "at_floor"
	}
	metrics.FrequencyFeedback.WithLabelValues(outcome).Inc()
	logger.Info("frequency cap feedback", "user_id", userID, "frequency_cap", settings.FrequencyCap, "changed", changed)

	return domain.FrequencyOutcome{FrequencyCap: settings.FrequencyCap, Changed: changed}, nil
}

func (s *planService) composeAndStore(ctx context.Context, userID string, now time.Time) (domain.DailyPlan, error) {
	plan, err := s.compose(ctx, userID, now)
	if err != nil {
		logger.Error("Failed to compose daily plan", "user_id", userID, "stage", "plan", "error", err)
		return domain.DailyPlan{}, err
	}

	if err := s.Cache.Set(ctx, plan, s.ttl(now)); err != nil {
		logger.Warn("plan cache write failed", "user_id", userID, "error", err)
	}
	return plan, nil
}

func (s *planService) compose(ctx context.Context, userID string, now time.Time) (domain.DailyPlan, error) {
	frequencyCap, err := s.GetFrequency(ctx, userID)
	if err != nil {
		return domain.DailyPlan{}, err
	}

	var reasons []string
	snapshot, err := s.Snapshots.Latest(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrSnapshotNotFound):
		snapshot = domain.SignalSnapshot{Priority: domain.PriorityHabit}
		reasons = append(reasons, "no signal analysis yet, using the habit plan")
	case err != nil:
		return domain.DailyPlan{}, err
	}

	stale := snapshot.ID != "" && now.Sub(snapshot.CreatedAt) > s.cfg.StaleAfter
	if stale {
		reasons = append(reasons, fmt.Sprintf("signal analysis from %s is older than %s", snapshot.CreatedAt.Format(time.RFC3339), s.cfg.StaleAfter))
	}
	reasons = append(reasons, priorityReason(snapshot))

	profile, err := s.Profiles.GetProfile(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
		return domain.DailyPlan{}, err
	}

	content, prefReason, err := s.pickContent(ctx, userID)
	if err != nil {
		return domain.DailyPlan{}, err
	}

	local := now.In(s.cfg.Location)
	band := domain.BandFor(snapshot.RiskLevel)
	slots := capSlots(selectSlots(local, snapshot.Priority, band, content), frequencyCap)

	vars := map[string]interface{}{
		"name":          firstNonEmpty(profile.DisplayName, "there"),
		"week":          profile.PregnancyWeek(now),
		"baby_weeks":    profile.BabyAgeWeeks(now),
		"content_title": "",
	}
	if content != nil {
		vars["content_title"] = content.Title
	}

	items := make([]domain.MessagePlanItem, len(slots))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.RenderConcurrency)
	for i, sl := range slots {
		g.Go(func() error {
			items[i] = s.render(gctx, sl, snapshot, vars, reasons, prefReason)
			return nil
		})
	}
	_ = g.Wait()

	return domain.DailyPlan{
		UserID:        userID,
		Day:           s.localDay(now),
		GeneratedAt:   now,
		FrequencyCap:  frequencyCap,
		SnapshotID:    snapshot.ID,
		SnapshotStale: stale,
		Items:         items,
	}, nil
}

func (s *planService) render(ctx context.Context, sl slot, snapshot domain.SignalSnapshot, vars map[string]interface{}, baseReasons []string, prefReason string) domain.MessagePlanItem {
	tags := []string(snapshot.Tags)
	if tags == nil {
		tags = []string{}
	}

	reasons := append(append([]string{}, baseReasons...), sl.Reasons...)
	if sl.Type == domain.PlanContent && prefReason != "" {
		reasons = append(reasons, prefReason)
	}

	rationale := domain.Rationale{
		Priority: snapshot.Priority,
		Tags:     tags,
		Scores:   snapshot.Scores(),
		Reasons:  reasons,
	}

	tpl := s.Templates.Lookup(sl.Type, snapshot.Priority)
	msg := s.Composer.Compose(ctx, copywriter.ComposeRequest{
		Template:  tpl.Text,
		Variables: vars,
		Rationale: &rationale,
		Tone:      toneFor(snapshot.Priority, sl.Type),
	})

	cta := msg.CTA
	if cta == "" {
		cta = tpl.CTA
	}

	item := domain.MessagePlanItem{
		ScheduledAt: sl.At,
		Type:        sl.Type,
		MessageText: msg.Text,
		CTA:         cta,
		Provider:    msg.Provider,
		Rationale:   rationale,
	}
	if sl.Content != nil {
		item.ContentID = sl.Content.ID
	}
	return item
}

// pickContent chooses one catalog item from the user's strongest
// preferences, falling back to any published item.
func (s *planService) pickContent(ctx context.Context, userID string) (*domain.ContentItem, string, error) {
	prefs, err := s.Preferences.TopWeights(ctx, userID, 5)
	if err != nil {
		return nil, "", err
	}

	if len(prefs) > 0 {
		tagIDs := make([]string, 0, len(prefs))
		for _, p := range prefs {
			tagIDs = append(tagIDs, p.TagID)
		}
		items, err := s.Catalog.FindByTags(ctx, tagIDs, 1)
		if err != nil {
			return nil, "", err
		}
		if len(items) > 0 {
			top := prefs[0]
			return &items[0], "top preference " + top.TagID + " (" + strconv.FormatFloat(top.Weight, 'f', 2, 64) + ", " + top.Source + ")", nil
		}
	}

	items, err := s.Catalog.ListPublished(ctx, 1)
	if err != nil {
		return nil, "", err
	}
	if len(items) == 0 {
		return nil, "", nil
	}
	return &items[0], "no matching preferences, general content", nil
}

func (s *planService) localDay(now time.Time) string {
	return now.In(s.cfg.Location).Format("2006-01-02")
}

// ttl keeps the cached plan until one hour past local midnight.
func (s *planService) ttl(now time.Time) time.Duration {
	local := now.In(s.cfg.Location)
	midnight := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, s.cfg.Location)
	return midnight.Sub(local) + time.Hour
}

func priorityReason(snap domain.SignalSnapshot) string {
	switch snap.Priority {
	case domain.PriorityAlert:
		return "priority alert: critical signal present"
	case domain.PriorityStress:
		return fmt.Sprintf("priority stress: stress score %d above 70", snap.Stress)
	case domain.PrioritySupport:
		if snap.HasTag(domain.TagLonely) {
			return "priority support: loneliness reported"
		}
		return fmt.Sprintf("priority support: support score %d below 40", snap.Support)
	case domain.PriorityBelonging:
		return "priority belonging: parenting alone"
	default:
		return "priority habit: no pressing signal"
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
