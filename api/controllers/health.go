package controllers

import (
	"net/http"

	"github.com/avelarm/shopyard-backend/api/responses"
	"github.com/avelarm/shopyard-backend/pkg/db"
	pkgerrors "github.com/avelarm/shopyard-backend/pkg/errors"
	"github.com/avelarm/shopyard-backend/pkg/logger"
	"github.com/avelarm/shopyard-backend/pkg/redis"
)

// HealthLive reports process liveness only.
func HealthLive() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

// HealthReady verifies the datastore and cache are reachable.
func HealthReady(dbPinger db.Pinger, redisPinger redis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"redis":    "ok",
		}

		failed := false
		if dbPinger == nil {
			checks["database"] = "not configured"
			failed = true
		} else if err := dbPinger.Ping(r.Context()); err != nil {
			checks["database"] = err.Error()
			failed = true
		}
		if redisPinger == nil {
			checks["redis"] = "not configured"
			failed = true
		} else if err := redisPinger.Ping(r.Context()); err != nil {
			checks["redis"] = err.Error()
			failed = true
		}

		if failed {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, checks)
	}
}
