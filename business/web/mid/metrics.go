package mid

import (
	"context"
	"expvar"
	"net/http"
	"runtime"

	"github.com/ardanlabs/utxochain/foundation/web"
)

// Counters published under /debug/vars.
var (
	requestCount   = expvar.NewInt("requests")
	errorCount     = expvar.NewInt("errors")
	panicCount     = expvar.NewInt("panics")
	goroutineCount = expvar.NewInt("goroutines")
)

// Metrics updates program counters.
func Metrics() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)

			requestCount.Add(1)
			if requestCount.Value()%100 == 0 {
				goroutineCount.Set(int64(runtime.NumGoroutine()))
			}

			if err != nil {
				errorCount.Add(1)
			}

			return err
		}

		return h
	}

	return m
}
