package middleware

import (
	"net/http"
	"strconv"

	"github.com/AnshRaj112/solace-backend/pkg/clientip"
	"golang.org/x/time/rate"
)

// Room history paging: 30 req/min with a burst of 20 per user. Fast scrolling
// back through a conversation stays under it; scripted scraping does not.
const (
	roomHistoryRPS   = 0.5
	roomHistoryBurst = 20
)

// RoomHistoryRateLimit limits the message history endpoint per authenticated
// user, falling back to the client IP. Mount it after Require.
func RoomHistoryRateLimit(trustProxy bool) func(http.Handler) http.Handler {
	limiters := newIPLimiters(rate.Limit(roomHistoryRPS), roomHistoryBurst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + clientip.FromRequest(r, trustProxy)
			if u, ok := UserFromContext(r.Context()); ok {
				key = "user:" + u.UserID.String()
			}
			lim := limiters.get(key)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(roomHistoryBurst))
			if !lim.Allow() {
				w.Header().Set("X-RateLimit-Remaining", "0")
				tooManyRequests(w, "Too many history requests. Please slow down.")
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(lim.Tokens())))
			next.ServeHTTP(w, r)
		})
	}
}
