package middleware

import (
	"github.com/rs/zerolog"

	"github.com/arfordweb/redux-auto-api/pkg/action"
	"github.com/arfordweb/redux-auto-api/pkg/store"
)

// Logger returns middleware logging every dispatched action at debug level,
// and failed terminal phases at warn level with the carried error.
func Logger(log zerolog.Logger) store.Middleware {
	return func(next store.Dispatch) store.Dispatch {
		return func(a action.Action) {
			ev := log.Debug()
			if a.Phase == action.Fail && a.Err != nil {
				ev = log.Warn().Err(a.Err)
			}
			ev.
				Str("namespace", a.Namespace).
				Str("op", a.Op.String()).
				Str("mode", a.Mode.String()).
				Str("phase", a.Phase.String()).
				Str("type", a.Type()).
				Int("records", len(a.Data)).
				Msg("dispatch")
			next(a)
		}
	}
}
