package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"leadgate/internal/abuse/metrics"
	"leadgate/internal/abuse/models"
	rlmodels "leadgate/internal/ratelimit/models"
	rlservice "leadgate/internal/ratelimit/service"
	"leadgate/internal/ratelimit/store/bucket"
	"leadgate/pkg/testutil"
)

type stubLimiter struct {
	calls    int
	decision rlmodels.Decision
	err      error
}

func (l *stubLimiter) CheckSubmission(context.Context, rlmodels.Identity) (rlmodels.Decision, error) {
	l.calls++
	return l.decision, l.err
}

type EngineSuite struct {
	suite.Suite
	limiter *stubLimiter
	metrics *metrics.Metrics
	logs    *bytes.Buffer
	engine  *Service
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.limiter = &stubLimiter{}
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.logs = &bytes.Buffer{}
	engine, err := New(s.limiter,
		WithLogger(slog.New(slog.NewJSONHandler(s.logs, nil))),
		WithMetrics(s.metrics),
	)
	s.Require().NoError(err)
	s.engine = engine
}

func genuine() models.Submission {
	return models.Submission{
		IP:        testutil.ClientIP,
		UserAgent: testutil.BrowserUA,
		Name:      testutil.LeadName,
		Email:     testutil.LeadEmail,
		Phone:     testutil.LeadPhone,
		Honeypot:  map[string]string{"website": ""},
	}
}

func (s *EngineSuite) TestGenuineSubmissionPasses() {
	v := s.engine.Evaluate(context.Background(), genuine())
	s.False(v.Blocked)
	s.False(v.IsBot)
	s.Equal(models.KindNone, v.Kind)
	s.Equal(1, s.limiter.calls)
}

func (s *EngineSuite) TestHoneypotBlocksBeforeLimiter() {
	sub := genuine()
	sub.Honeypot["fax"] = "555-0100"

	v := s.engine.Evaluate(context.Background(), sub)
	s.True(v.Blocked)
	s.True(v.IsBot)
	s.Equal(models.KindHoneypot, v.Kind)
	s.Equal("honeypot:fax", v.Reason)
	s.Zero(s.limiter.calls, "honeypot short-circuits the limiters")
	s.Contains(s.logs.String(), `"blocked":true`)
	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.Blocks.WithLabelValues("honeypot:fax")))
}

func (s *EngineSuite) TestHoneypotBlocksEvenWhenLimiterWouldBlock() {
	s.limiter.decision = rlmodels.Decision{Exceeded: true, Limiter: rlmodels.LimiterIPShort}
	sub := genuine()
	sub.Honeypot["website"] = "x"

	v := s.engine.Evaluate(context.Background(), sub)
	s.Equal(models.KindHoneypot, v.Kind)
}

func (s *EngineSuite) TestRateLimitBlocks() {
	s.limiter.decision = rlmodels.Decision{Exceeded: true, Limiter: rlmodels.LimiterEmail}

	v := s.engine.Evaluate(context.Background(), genuine())
	s.True(v.Blocked)
	s.False(v.IsBot)
	s.Equal(models.KindRateLimit, v.Kind)
	s.Equal(rlmodels.LimiterEmail, v.Limiter)
	s.Contains(s.logs.String(), `"blocked":true`)
}

func (s *EngineSuite) TestLimiterFailureFailsOpen() {
	s.limiter.err = errors.New("redis down")

	v := s.engine.Evaluate(context.Background(), genuine())
	s.False(v.Blocked)
	s.Contains(s.logs.String(), "abuse_ratelimit_degraded")
}

func (s *EngineSuite) TestAdvisorySignalsNeverBlock() {
	sub := genuine()
	sub.UserAgent = "curl/8.4.0"
	sub.Name = "asdfgh"

	v := s.engine.Evaluate(context.Background(), sub)
	s.False(v.Blocked)
	s.True(v.IsBot)
	s.Equal(models.KindAdvisory, v.Kind)
	s.Equal([]string{"ua_curl", "name_keyboard_sequence"}, v.Signals)
	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.Verdicts.WithLabelValues(string(models.KindAdvisory))))
}

func (s *EngineSuite) TestNewRequiresLimiter() {
	_, err := New(nil)
	s.Error(err)
}

func TestEngineWithRealLimiterBlocksFourthSubmission(t *testing.T) {
	limiter, err := rlservice.New(bucket.NewInMemoryBucketStore())
	require.NoError(t, err)
	engine, err := New(limiter)
	require.NoError(t, err)

	var last models.Verdict
	for range 4 {
		last = engine.Evaluate(context.Background(), genuine())
	}
	assert.True(t, last.Blocked)
	assert.Equal(t, rlmodels.LimiterIPShort, last.Limiter)
}
