// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides session identifiers and session keys.

# Session IDs

Progressive tabulation sessions are identified by random UUIDs:

	id := auth.NewSessionID()
	id, err := auth.ParseSessionID(r.PathValue("id"))

# Session Keys

Session keys use HMAC-SHA256 to create deterministic, verifiable keys:

	key := auth.GenerateSessionKey(sessionID, salt)
	err := auth.ValidateSessionKey(sessionID, key, salt)

The key is URL-safe base64 encoded without padding. Only the holder of the key
can append ballots to or delete a session. Since the key is derived from the
session ID and the server salt, it is never stored.
*/
package auth
