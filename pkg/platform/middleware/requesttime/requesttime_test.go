package requesttime

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"leadgate/pkg/requestcontext"
)

func TestMiddlewarePinsTime(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var seen []time.Time

	handler := MiddlewareWithClock(func() time.Time { return fixed })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = append(seen, requestcontext.Now(r.Context()))
			time.Sleep(time.Millisecond)
			seen = append(seen, requestcontext.Now(r.Context()))
		}),
	)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []time.Time{fixed, fixed}, seen)
}

func TestMiddlewareUsesWallClock(t *testing.T) {
	before := time.Now()
	var got time.Time
	Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestcontext.Now(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, got.Before(before))
}
