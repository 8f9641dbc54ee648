package github_test

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/fwojciec/libdoc/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	t.Parallel()

	t.Run("unknown quota does not block", func(t *testing.T) {
		t.Parallel()

		l := github.NewRateLimiter(0)

		require.NoError(t, l.Wait(context.Background()))
		assert.Equal(t, -1, l.Remaining())
	})

	t.Run("records quota from headers", func(t *testing.T) {
		t.Parallel()

		l := github.NewRateLimiter(0)
		l.Update(&http.Response{Header: http.Header{
			"X-Ratelimit-Remaining": []string{"42"},
			"X-Ratelimit-Reset":     []string{strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)},
		}})

		assert.Equal(t, 42, l.Remaining())
		require.NoError(t, l.Wait(context.Background()))
	})

	t.Run("waits for reset when quota is exhausted", func(t *testing.T) {
		t.Parallel()

		l := github.NewRateLimiter(0)
		l.Update(&http.Response{Header: http.Header{
			"X-Ratelimit-Remaining": []string{"0"},
			"X-Ratelimit-Reset":     []string{strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)},
		}})
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := l.Wait(ctx)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("ignores nil response", func(t *testing.T) {
		t.Parallel()

		l := github.NewRateLimiter(0)
		l.Update(nil)

		assert.Equal(t, -1, l.Remaining())
	})
}
