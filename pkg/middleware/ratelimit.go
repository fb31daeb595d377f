// Package middleware translates limiter decisions into HTTP responses.
package middleware

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/stylecat/ratelimit/pkg/limiter"
)

const limitExceededMessage = "you have reached the maximum number of requests allowed within this time frame"

// RateLimit wraps next with one rate-limit rule. Allowed requests carry
// X-RateLimit-* headers; saturated ones receive 429 with Retry-After.
func RateLimit(l *limiter.Limiter, identifier string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil {
				next.ServeHTTP(w, r)
				return
			}

			info, err := l.Check(r, identifier)
			if err != nil {
				var lee *limiter.LimitExceededError
				if errors.As(err, &lee) {
					writeTooManyRequests(w, lee)
					return
				}

				// by contract Check only fails with a violation; anything
				// else means a bug, so let the request through
				log.Error().Err(err).Str("identifier", identifier).Msg("rate limiter returned an unexpected error")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Total))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.Reset.Unix(), 10))
			next.ServeHTTP(w, r)
		})
	}
}

func writeTooManyRequests(w http.ResponseWriter, lee *limiter.LimitExceededError) {
	seconds := int64(math.Ceil(lee.RetryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.FormatInt(seconds, 10))
	http.Error(w, limitExceededMessage, http.StatusTooManyRequests)
}
