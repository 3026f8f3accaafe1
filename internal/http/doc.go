// Package http provides the JSON API handlers and middleware for the
// weekly events service.
//
// The router exposes the following endpoints:
//   - GET /api/bootstrap: returns the rolling 7-day schedule together with
//     the caller's identity when a valid session token accompanies the
//     request. Available to guests.
//   - POST /api/auth/register, POST /api/auth/login: create an account or
//     verify credentials. Both respond with {"token","expiresAt","user"}
//     and surface the token via the `X-Session-Token` header and a
//     `session_token` cookie.
//   - POST /api/auth/logout: revokes the current session token and clears
//     the cookie. Returns 204 No Content.
//   - POST /api/events/{id}/register, POST /api/events/{id}/unregister:
//     sign an identity up for an event or cancel it. The identity comes
//     from the request body ({"name","surname"}) or from the session.
//   - GET /api/admin/schedule, POST /api/admin/events,
//     DELETE /api/admin/events/{id},
//     DELETE /api/admin/events/{id}/registrations/{index}: administrator
//     controlled schedule management exchanging the `eventDTO` payload
//     defined in schedule_handler.go.
//
// Request/response DTOs live alongside their respective handlers so tests
// and documentation share the same ground truth.
package http
