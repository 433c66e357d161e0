// Package auth provides authentication for journal-gateway.
//
// # Passwords
//
// BcryptHasher hashes passwords with golang.org/x/crypto/bcrypt at a cost
// fixed at startup. Verify never panics on a malformed hash; it reports a
// mismatch.
//
// # Session Tokens
//
// TokenCodec signs HS256 JWTs carrying:
//
//   - sub: the user ID
//   - access: the token purpose, "auth" for session tokens
//   - jti: a random UUID so tokens issued in the same second differ
//   - iat, and exp only when a TTL is configured
//
// A signature alone does not make a token valid. The literal token must also
// be present in the user's token list, which internal/accounts checks in
// ResolveByToken. Logging out removes the list entry and the token stops
// working even though it still verifies.
//
// # HTTP Middleware
//
//	mw := auth.HTTPAuthMiddleware(accountsService, logger)
//	router.Use(mw)
//
// The token is read from the x-auth header, falling back to
// "Authorization: Bearer <token>". Rejections are 401 with an empty body.
// Handlers retrieve the caller with FromContext or MustFromContext.
package auth
