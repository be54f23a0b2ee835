// Package devserver is an in-memory stand-in for the NutriNow backend. It
// serves the same REST endpoints as the production service so the client can
// be run and tested locally: cookie sessions signed as HS256 JWTs, bcrypt
// password hashes, per-user workout and meal lists, canned assistant replies
// and chat history per session id.
//
// State lives only in process memory and is lost on restart.
package devserver
