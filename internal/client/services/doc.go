// Package services contains the application services of the NutriNow client:
// the session manager and route guard, chat session coordination, the
// diet/workout item manager, and the profile and password recovery flows.
//
// Services talk to the backend through client.Client, persist state through
// storage.Store and report to the user through the small UI capabilities
// declared in ui.go. None of them print or read the terminal directly.
package services
