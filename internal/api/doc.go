// Package api exposes journals and tasks over a JSON REST API.
//
// # Endpoints
//
//	POST   /users                 register, returns x-auth header
//	POST   /users/login           log in, returns x-auth header
//	GET    /users/me              current user
//	DELETE /users/me/token        log out the presented token
//	POST   /journals              create a journal
//	GET    /journals              list own journals
//	GET    /journals/{id}         one journal
//	PATCH  /journals/{id}         replace notes
//	POST   /journals/{id}/tasks   create a task
//	GET    /journals/{id}/tasks   list tasks in a journal
//	PATCH  /tasks/{id}            set completed (stored inverted, see journal.Service)
//	DELETE /tasks/{id}            delete a task
//
// All routes except registration and login go through
// auth.HTTPAuthMiddleware and answer 401 with an empty body when the session
// token is missing or revoked.
//
// # Errors
//
// Errors are JSON objects of the form {"error": "..."}. Validation failures
// and duplicate emails are 400. Login failures are 400 with the same message
// for an unknown email and a wrong password. Malformed ids and records owned
// by someone else are 404 with an empty body.
package api
