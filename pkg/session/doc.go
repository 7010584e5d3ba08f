/*
Package session manages per-session auto-response timers.

This is the one stateful, concurrent actor adjacent to the compiler core: a
cancellable timer list keyed by session id. Timers are cancelled wholesale on
new session activity and must never fire after a session has left the
"awaiting human" state, so callers Touch or Release the session on every state
change.
*/
package session
