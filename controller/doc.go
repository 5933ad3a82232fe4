// Package controller is the client for the remote identity controller.
//
// It exposes the controller's logical operations (token validation, user
// lookup, login, logout, token refresh, permission queries) behind a
// Client interface and provides an HTTP implementation. The client
// carries no retry or resilience logic and never interprets results:
// classifying failures into safe local outcomes is the caller's job.
package controller
