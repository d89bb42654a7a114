package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/Togather-Foundation/eventboard/internal/api/problem"
	"github.com/rs/zerolog"
)

// Recover turns a panicking handler into a 500 problem response and logs the stack.
func Recover(env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				zerolog.Ctx(r.Context()).Error().
					Str("stack", string(debug.Stack())).
					Msg("panic recovered")
				problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Internal server error",
					fmt.Errorf("panic: %v", rec), env)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
