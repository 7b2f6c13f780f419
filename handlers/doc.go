// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the rankvote API.

# Handler Types

  - TabulateHandler: one-shot tabulation of a posted ballot set
  - SessionHandler: progressive sessions that grow one ballot at a time
  - RunsHandler: recorded simulation runs read back from the database

# One-shot Tabulation

	GET  /candidates → Candidates
	POST /tabulate   → Tabulate

The body lists rankings by candidate index, most preferred first:

	{"ballots": [[0,1,2,3,4], [1,0,2,3,4]]}

Every ballot must rank all candidates exactly once; otherwise the request is
rejected with 400. The response carries the winner label of each rule plus the
full tallies (plurality counts, Borda scores, the pairwise win matrix, IRV
final counts and elimination order). A rule without a winner reports null.

# Progressive Sessions

	POST   /sessions              → Create (returns session_key)
	POST   /sessions/{id}/ballots → AppendBallot
	GET    /sessions/{id}         → Get
	DELETE /sessions/{id}         → Delete

Appending and deleting require the X-Session-Key header. Each append returns
the step record of the grown ballot set: the step number, every ballot so far,
the winners, and the tallies. Sessions live in memory only.

# Recorded Runs

	GET /runs                     → List
	GET /runs/{id}/steps          → ListSteps
	GET /runs/{id}/steps/{step}   → GetStep

Runs are read through the RunStore interface, implemented by the SQL recorder.
*/
package handlers
