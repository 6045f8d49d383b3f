package signals_test

import (
	"context"
	"testing"
	"time"

	"maternityCare/business/alerts"
	"maternityCare/business/oracle"
	"maternityCare/business/oracle/oracletest"
	"maternityCare/business/signals"
	"maternityCare/domain"
	"maternityCare/internal/repository/postgres"
	"maternityCare/pkg/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db        *gorm.DB
	snapshots *postgres.SignalRepository
	alerts    *postgres.AlertRepository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := dbtest.Open(t)

	due := now.Add(10 * 7 * 24 * time.Hour)
	require.NoError(t, db.Create(&domain.Profile{UserID: "u1", Stage: domain.StagePregnant, DueDate: &due, CreatedAt: now}).Error)
	require.NoError(t, db.Create(&domain.BehavioralEvent{
		ID: "2f1c7c52-6a7e-4a43-9b0c-1f0f5d1f2a01", UserID: "u1", Kind: domain.EventMoodCheckin,
		Payload: []byte(`{"mood":2}`), CreatedAt: now.Add(-time.Hour),
	}).Error)
	require.NoError(t, db.Create(&domain.ChatTurn{UserID: "u1", Role: "user", Content: "I feel so alone lately", CreatedAt: now.Add(-2 * time.Hour)}).Error)

	return fixture{
		db:        db,
		snapshots: postgres.NewSignalRepository(db),
		alerts:    postgres.NewAlertRepository(db),
	}
}

func (f fixture) service(oracles ...oracle.Oracle) interface {
	BuildSignals(ctx context.Context, userID string) (domain.SignalSnapshot, error)
} {
	escalator := alerts.NewAlertService(f.alerts, nil).WithClock(func() time.Time { return now })
	return signals.NewSignalService(
		postgres.NewEventRepository(f.db),
		postgres.NewChatRepository(f.db),
		postgres.NewProfileRepository(f.db),
		f.snapshots,
		escalator,
		oracle.NewChain("signals", time.Second, oracles...),
		signals.Config{},
	).WithClock(func() time.Time { return now })
}

func (f fixture) countAlerts(t *testing.T) int64 {
	var n int64
	require.NoError(t, f.db.Model(&domain.AlertRecord{}).Count(&n).Error)
	return n
}

func TestBuildSignals_HarmThoughtsRaisesOneAlert(t *testing.T) {
	f := newFixture(t)
	stub := oracletest.Answering("primary",
		`{"tags":["harm_thoughts"],"scores":{"stress":60,"sleep":30,"support":50,"mood":20},"risk_level":9}`)

	snap, err := f.service(stub).BuildSignals(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, domain.PriorityAlert, snap.Priority)
	assert.Equal(t, 9, snap.RiskLevel)
	assert.Equal(t, "primary", snap.Provider)

	var rows []domain.AlertRecord
	require.NoError(t, f.db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.TagHarmThoughts, rows[0].AlertType)
	assert.Equal(t, 9, rows[0].Severity)
	assert.False(t, rows[0].Resolved)
	assert.Equal(t, snap.ID, rows[0].SnapshotID)

	// prompt carries the taxonomy and the gathered context
	prompt := stub.LastRequest().Prompt
	assert.Contains(t, prompt, "harm_thoughts")
	assert.Contains(t, prompt, "mood_checkin")
	assert.Contains(t, prompt, "I feel so alone lately")
	assert.Contains(t, prompt, "pregnancy week: 30")
}

func TestBuildSignals_LonelyLowSupportNoAlert(t *testing.T) {
	f := newFixture(t)
	stub := oracletest.Answering("primary",
		`{"tags":["tag_lonely","support_low"],"scores":{"stress":10,"sleep":60,"support":20,"mood":40},"risk_level":3}`)

	snap, err := f.service(stub).BuildSignals(context.Background(), "u1")
	require.NoError(t, err)

	assert.Contains(t, []domain.Priority{domain.PrioritySupport, domain.PriorityBelonging}, snap.Priority)
	assert.Equal(t, int64(0), f.countAlerts(t))
}

func TestBuildSignals_FallsBackToSecondary(t *testing.T) {
	f := newFixture(t)

	snap, err := f.service(
		oracletest.Answering("primary", `{"tags":["not_a_tag"],"scores":{"stress":1,"sleep":1,"support":90,"mood":1},"risk_level":1}`),
		oracletest.Answering("secondary", `{"tags":[],"scores":{"stress":85,"sleep":40,"support":70,"mood":50},"risk_level":4}`),
	).BuildSignals(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, "secondary", snap.Provider)
	assert.Equal(t, domain.PriorityStress, snap.Priority)

	latest, err := f.snapshots.Latest(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, snap.ID, latest.ID)
	assert.Equal(t, 85, latest.Stress)
}

func TestBuildSignals_ExhaustedPersistsNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.service(
		oracletest.Failing("primary"),
		oracletest.Answering("secondary", `{"tags":["harm_thoughts"],"risk_level":9}`),
	).BuildSignals(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrOracleExhausted)

	_, err = f.snapshots.Latest(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	assert.Equal(t, int64(0), f.countAlerts(t))
}

func TestBuildSignals_ProfileNotFound(t *testing.T) {
	f := newFixture(t)
	stub := oracletest.Answering("primary", `{}`)

	_, err := f.service(stub).BuildSignals(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
	assert.Equal(t, 0, stub.Calls())
}

type failingEscalator struct{}

func (failingEscalator) Escalate(ctx context.Context, s domain.SignalSnapshot) (*domain.AlertRecord, error) {
	return nil, assert.AnError
}

func TestBuildSignals_AlertFailureKeepsSnapshot(t *testing.T) {
	f := newFixture(t)
	svc := signals.NewSignalService(
		postgres.NewEventRepository(f.db),
		postgres.NewChatRepository(f.db),
		postgres.NewProfileRepository(f.db),
		f.snapshots,
		failingEscalator{},
		oracle.NewChain("signals", time.Second, oracletest.Answering("primary",
			`{"tags":["harm_thoughts"],"scores":{"stress":90,"sleep":10,"support":10,"mood":5},"risk_level":10}`)),
		signals.Config{},
	).WithClock(func() time.Time { return now })

	snap, err := svc.BuildSignals(context.Background(), "u1")
	require.NoError(t, err)

	latest, err := f.snapshots.Latest(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, snap.ID, latest.ID)
}

func TestBuildSignals_RepeatedCriticalDoesNotDuplicateAlert(t *testing.T) {
	f := newFixture(t)
	answer := `{"tags":["intrusive_thoughts"],"scores":{"stress":70,"sleep":30,"support":50,"mood":30},"risk_level":8}`
	svc := f.service(oracletest.Answering("primary", answer))

	_, err := svc.BuildSignals(context.Background(), "u1")
	require.NoError(t, err)
	_, err = svc.BuildSignals(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, int64(1), f.countAlerts(t))
}
