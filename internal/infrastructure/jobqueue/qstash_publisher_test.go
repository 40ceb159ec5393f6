package jobqueue

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside/community-api/internal/platform/logging"
	"github.com/courtside/community-api/internal/platform/resilience"
)

type capturedPublish struct {
	path    string
	headers http.Header
	body    string
}

func newPublisherFixture(t *testing.T, status int) (*QStashPublisher, *capturedPublish) {
	t.Helper()

	captured := &capturedPublish{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured.path = r.RequestURI
		captured.headers = r.Header.Clone()
		captured.body = string(body)
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:          server.URL,
		Token:            "qstash-token",
		TargetBaseURL:    "https://api.example.com",
		Retries:          3,
		InternalJobToken: "job-token",
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}, logging.NewNop())

	return publisher, captured
}

func TestEnqueueGameReconcile_PublishesJob(t *testing.T) {
	publisher, captured := newPublisherFixture(t, http.StatusOK)

	err := publisher.EnqueueGameReconcile(context.Background(), "game-42", 30*time.Second)
	require.NoError(t, err)

	assert.Equal(t, "/v2/publish/https://api.example.com/v1/internal/games/game-42/rating/reconcile", captured.path)
	assert.Equal(t, "Bearer qstash-token", captured.headers.Get("Authorization"))
	assert.Equal(t, "POST", captured.headers.Get("Upstash-Method"))
	assert.Equal(t, "3", captured.headers.Get("Upstash-Retries"))
	assert.Equal(t, "30s", captured.headers.Get("Upstash-Delay"))
	assert.Equal(t, "rating-reconcile-game-42", captured.headers.Get("Upstash-Deduplication-Id"))
	assert.Equal(t, "job-token", captured.headers.Get("Upstash-Forward-X-Internal-Job-Token"))
	assert.JSONEq(t, `{"game_id":"game-42"}`, captured.body)
}

func TestEnqueueGameReconcile_RequiresGameID(t *testing.T) {
	publisher, _ := newPublisherFixture(t, http.StatusOK)

	err := publisher.EnqueueGameReconcile(context.Background(), "  ", 0)
	require.Error(t, err)
}

func TestEnqueue_NonRetryableStatusDoesNotTripBreaker(t *testing.T) {
	publisher, _ := newPublisherFixture(t, http.StatusBadRequest)

	for i := 0; i < 5; i++ {
		err := publisher.EnqueueGameReconcile(context.Background(), "game-1", 0)
		require.Error(t, err)
	}

	assert.Equal(t, resilience.CircuitStateClosed, publisher.breaker.State())
}

func TestEnqueue_RetryableStatusOpensBreaker(t *testing.T) {
	publisher, _ := newPublisherFixture(t, http.StatusServiceUnavailable)

	for i := 0; i < 2; i++ {
		err := publisher.EnqueueGameReconcile(context.Background(), "game-1", 0)
		require.Error(t, err)
	}

	assert.Equal(t, resilience.CircuitStateOpen, publisher.breaker.State())

	err := publisher.EnqueueGameReconcile(context.Background(), "game-1", 0)
	require.ErrorContains(t, err, "temporarily unavailable")
}

func TestNormalizeDelay(t *testing.T) {
	assert.Equal(t, "0s", normalizeDelay(0))
	assert.Equal(t, "0s", normalizeDelay(-time.Second))
	assert.Equal(t, "90s", normalizeDelay(90*time.Second))
}

func TestValidateHTTPBaseURL(t *testing.T) {
	_, err := validateHTTPBaseURL("")
	require.Error(t, err)

	_, err = validateHTTPBaseURL("ftp://example.com")
	require.Error(t, err)

	got, err := validateHTTPBaseURL("https://qstash.upstash.io/")
	require.NoError(t, err)
	assert.Equal(t, "https://qstash.upstash.io", got)
}
