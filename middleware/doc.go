// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging and Metrics

Wrap handlers with request logging and per-route metrics:

	mux.HandleFunc("POST /tabulate",
		middleware.WithLogging(middleware.WithMetrics(m, "POST /tabulate", handler)))

WithLogging logs request start (method, path, remote) and completion (status,
duration_ms). WithMetrics returns the handler unchanged when m is nil.

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, DELETE, OPTIONS with headers Content-Type and
X-Session-Key.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

ParseJSONBody reads at most MaxBodyBytes and rejects trailing data.
BodyErrorResponse answers its errors with 413 or 400:

	var req models.TabulateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.BodyErrorResponse(w, err)
		return
	}

# Client IP Extraction

ClientIP returns the original client address, honouring X-Forwarded-For and
X-Real-IP.
*/
package middleware
