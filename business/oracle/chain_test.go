package oracle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"maternityCare/business/oracle"
	"maternityCare/business/oracle/oracletest"
	"maternityCare/domain"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type answer struct {
	Text  string `json:"text" validate:"required"`
	Score *int   `json:"score" validate:"required,min=0,max=10"`
}

var check = oracle.StructCheck[answer](validator.New())

func TestRun_PrimaryAnswers(t *testing.T) {
	primary := oracletest.Answering("primary", `{"text":"hi","score":3}`)
	secondary := oracletest.Answering("secondary", `{"text":"other","score":1}`)
	chain := oracle.NewChain("test", time.Second, primary, secondary)

	res, err := oracle.Run(context.Background(), chain, oracle.Request{Prompt: "p"}, check)
	require.NoError(t, err)

	assert.Equal(t, "primary", res.Provider)
	assert.Equal(t, "hi", res.Value.Text)
	assert.Equal(t, 0, secondary.Calls())
	require.Len(t, res.Attempts, 1)
	assert.Equal(t, oracle.OutcomeOK, res.Attempts[0].Outcome)
}

func TestRun_FallsThroughEveryFailureKind(t *testing.T) {
	cases := []struct {
		name    string
		primary *oracletest.Stub
		outcome string
	}{
		{"transport", oracletest.Failing("primary"), oracle.OutcomeTransport},
		{"status", &oracletest.Stub{ProviderName: "primary", Err: &oracle.StatusError{Provider: "primary", StatusCode: 503}}, oracle.OutcomeTransport},
		{"unparseable", oracletest.Answering("primary", "sure! here you go"), oracle.OutcomeParse},
		{"trailing", oracletest.Answering("primary", `{"text":"a","score":1} extra`), oracle.OutcomeParse},
		{"unknown field", oracletest.Answering("primary", `{"text":"a","score":1,"why":"x"}`), oracle.OutcomeParse},
		{"schema", oracletest.Answering("primary", `{"text":"a","score":11}`), oracle.OutcomeSchema},
		{"missing field", oracletest.Answering("primary", `{"text":"a"}`), oracle.OutcomeSchema},
		{"timeout", &oracletest.Stub{ProviderName: "primary", Block: true}, oracle.OutcomeTimeout},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			secondary := oracletest.Answering("secondary", `{"text":"ok","score":2}`)
			chain := oracle.NewChain("test", 50*time.Millisecond, tc.primary, secondary)

			res, err := oracle.Run(context.Background(), chain, oracle.Request{}, check)
			require.NoError(t, err)

			assert.Equal(t, "secondary", res.Provider)
			assert.Equal(t, "ok", res.Value.Text)
			require.Len(t, res.Attempts, 2)
			assert.Equal(t, tc.outcome, res.Attempts[0].Outcome)
		})
	}
}

func TestRun_Exhausted(t *testing.T) {
	chain := oracle.NewChain("test", time.Second,
		oracletest.Failing("primary"),
		oracletest.Answering("secondary", "not json"),
	)

	_, err := oracle.Run(context.Background(), chain, oracle.Request{}, check)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrOracleExhausted))
	assert.True(t, errors.Is(err, oracletest.ErrUnavailable))
}

func TestRun_EmptyChain(t *testing.T) {
	_, err := oracle.Run(context.Background(), oracle.NewChain("test", time.Second, nil), oracle.Request{}, check)
	assert.ErrorIs(t, err, domain.ErrOracleExhausted)
}

func TestRun_ParentCancelledStopsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	secondary := oracletest.Answering("secondary", `{"text":"ok","score":2}`)
	chain := oracle.NewChain("test", time.Second, oracletest.Failing("primary"), secondary)

	_, err := oracle.Run(ctx, chain, oracle.Request{}, check)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, secondary.Calls())
}

func TestDecode_StripsFences(t *testing.T) {
	v, err := oracle.Decode("```json\n{\"text\":\"fenced\",\"score\":0}\n```", check)
	require.NoError(t, err)
	assert.Equal(t, "fenced", v.Text)
}

func TestDecode_Empty(t *testing.T) {
	_, err := oracle.Decode("   ", check)
	var pe *oracle.ParseError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, oracle.ErrEmptyResponse)
}
