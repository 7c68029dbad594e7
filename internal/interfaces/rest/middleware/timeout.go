package middleware

import (
	"net/http"
	"time"
)

const timeoutBody = `{"success":false,"error":"Request timed out. Please try again.","code":"TIMEOUT"}`

// Timeout bounds the whole request. Checkout steps that must settle a
// session detach from this deadline themselves.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, timeoutBody)
	}
}
