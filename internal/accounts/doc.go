// Package accounts manages users and their session tokens.
//
// A session token is usable only while it verifies with the gateway secret,
// carries the "auth" purpose, and appears in the user's token list. Logging
// out removes the entry, which is why a token that still verifies can be
// rejected.
//
// Emails are trimmed and lower-cased before they are stored or looked up.
// FindByCredentials returns the same ErrNotFound for an unknown email and a
// wrong password.
package accounts
