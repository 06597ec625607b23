// Package common contains shared constants and sentinel errors used across
// SiteSurvey components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token on
// outbound API requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the device token in the Authorization header.
const BearerPrefix = "Bearer "
