// Package health serves liveness and readiness probes for the storefront
// server.
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//	    "postgres": postgres.Healthcheck(pool),
//	    "redis":    store.Healthcheck,
//	}, health.WithLogger(log)))
//
// Checks run concurrently under a shared timeout. Responses are plain text
// ("OK" or "Service Unavailable") unless the caller asks for JSON with an
// Accept: application/json header or ?format=json:
//
//	{"status":"unhealthy","checks":{"redis":{"status":"unhealthy","error":"..."}}}
package health
