package controllers

import (
	"net/http"

	"github.com/gatepasshq/gatepass-backend/api/responses"
	"github.com/gatepasshq/gatepass-backend/pkg/config"
	"github.com/gatepasshq/gatepass-backend/pkg/db"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"github.com/gatepasshq/gatepass-backend/pkg/logger"
	"github.com/gatepasshq/gatepass-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Gatepass-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness only when every hard dependency answers.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Gatepass-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true
		check := func(name string, err error) {
			if err != nil {
				checks[name] = "down"
				healthy = false
				if logg != nil {
					logg.Error(r.Context(), "readiness check failed: "+name, err)
				}
				return
			}
			checks[name] = "up"
		}

		if dbP != nil {
			check("postgres", dbP.Ping(r.Context()))
		}
		if redisP != nil {
			check("redis", redisP.Ping(r.Context()))
		}

		if !healthy {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency not ready").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
