// Package httpapi exposes job submission and job history over HTTP.
//
// Routes:
//
//	GET  /health    liveness probe
//	POST /jobs      submit a job.Request; answers 202 and runs it in the background
//	GET  /jobs      recent results, ?limit=N and ?state=S filters
//	GET  /jobs/:id  one result
//	GET  /jobs/:id/log  job log entries, ?offset=N&limit=N&stage=S&level=L
//
// When a token is configured every route except /health requires
// "Authorization: Bearer <token>".
package httpapi
