// Package client is the transport layer of the NutriNow client.
//
// # Overview
//
// Client is the transport-agnostic contract the services depend on: auth
// (Register/Login/Logout), chat (SendMessage/ChatHistory/AnalyzeImage),
// diet/workout items, profile, password recovery and a liveness Ping.
// HTTPClient implements it over the backend's JSON/multipart REST API with a
// cookie jar, so every request carries the session cookie the way a
// credentialed browser request would. Cookies are optionally persisted in a
// storage.Store under CookiesKey so a login survives restarts.
//
// # Error Handling
//
// Non-2xx responses and 2xx bodies with "success": false become *APIError.
// APIError unwraps to ErrUnauthorized (401/403), ErrUnavailable (502–504) or
// ErrBackend, so callers can match with errors.Is and still read the
// backend's message with errors.As. Connection failures wrap ErrUnavailable.
package client
