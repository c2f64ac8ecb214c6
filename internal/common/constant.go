// Package common contains shared constants and sentinel errors used across
// bankapi components.
package common

const (
	// AuthorizationHeaderName carries the bearer token on protected requests.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the token inside the authorization header.
	BearerPrefix = "Bearer "
)
