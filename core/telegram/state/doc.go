// Package state stores per-conversation sessions for Telegram bots.
//
// A session is addressed by Key (chat and user) and carries the active feature,
// the current state tag and a caller-defined payload D. Stores never interpret
// the payload; expiry is checked on every Load so an expired session reads as absent.
package state
