package httpadmin

import (
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryReload wraps a ReloadFunc with exponential backoff, for reload
// sources that fail transiently (a config file mid-write, a remote
// config store blip) rather than on a genuine config error. It retries
// up to maxElapsed before giving up and returning the last error.
func RetryReload(fn ReloadFunc, maxElapsed time.Duration) ReloadFunc {
	return func(r *http.Request) error {
		op := func() (struct{}, error) {
			return struct{}{}, fn(r)
		}
		_, err := backoff.Retry(r.Context(), op, backoff.WithMaxElapsedTime(maxElapsed))
		return err
	}
}
