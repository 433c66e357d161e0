// Package journal implements journals and their tasks for an authenticated user.
//
// Every operation takes the requesting user and filters by its ID. A record
// that belongs to another user is reported as ErrNotFound, exactly like one
// that does not exist. IDs that are not UUIDs are rejected with ErrInvalidID
// before the store is queried.
package journal
