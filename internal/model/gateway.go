// Package model defines shared types for the gateway.
package model

import "net/http"

// GatewayRequest is the part of an inbound browser request the gateway inspects.
type GatewayRequest struct {
	Method string
	Header http.Header
}

// Origin returns the requester's declared origin: the Origin header when
// present and non-empty, otherwise the Referer header, otherwise "".
// Redirect-style navigations often omit Origin but carry Referer.
func (r *GatewayRequest) Origin() string {
	if o := r.Header.Get("Origin"); o != "" {
		return o
	}
	return r.Header.Get("Referer")
}

// GatewayConfig is the immutable, process-wide gateway configuration.
type GatewayConfig struct {
	AllowedOrigin string
	Token         string
	BaseEndpoint  string
	CollectionID  string
}

// GatewayResponse is a successful gateway outcome: the 204 preflight answer
// or the 302 redirect. It never carries a body.
type GatewayResponse struct {
	StatusCode int
	Header     http.Header
}
