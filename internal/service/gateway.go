// Package service implements the gateway decision logic and submission intake.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"coi-gateway/internal/config"
	"coi-gateway/internal/metrics"
	"coi-gateway/internal/model"
)

var (
	// ErrMethodNotAllowed is returned for any verb other than GET and OPTIONS.
	ErrMethodNotAllowed = errors.New("method not allowed")
	// ErrOriginNotAllowed is returned when the request origin does not start
	// with the configured allowed origin.
	ErrOriginNotAllowed = errors.New("origin not allowed")
	// ErrTokenNotConfigured is a deployment error: no token is available to inject.
	ErrTokenNotConfigured = errors.New(config.TokenEnv + " is not configured")
)

// Query parameter names understood by the Origami incident-entry page.
const (
	tokenParam        = "token"
	collectionIDParam = "CollectionLinkItemID"
)

// Preflight response values.
const (
	allowMethods = "GET, OPTIONS"
	allowHeaders = "Content-Type"
	maxAge       = "86400"
)

// tokenPattern matches token query parameter values for log redaction.
var tokenPattern = regexp.MustCompile(`(?i)(token=)[^&\s"]+`)

// GatewayService decides whether a browser is redirected to Origami and
// composes the redirect. It holds no per-request state.
type GatewayService struct {
	cfg     model.GatewayConfig
	baseURL *url.URL
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewGatewayService creates a GatewayService from the loaded configuration.
// The metrics parameter is optional; pass nil to disable decision metrics.
func NewGatewayService(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*GatewayService, error) {
	gc := model.GatewayConfig{
		AllowedOrigin: cfg.Gateway.AllowedOrigin,
		Token:         cfg.Gateway.Token,
		BaseEndpoint:  cfg.Gateway.BaseEndpoint,
		CollectionID:  cfg.Gateway.CollectionID,
	}

	u, err := url.Parse(gc.BaseEndpoint)
	if err != nil {
		return nil, fmt.Errorf("parse gateway base_endpoint: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("gateway base_endpoint %q is not absolute", gc.BaseEndpoint)
	}

	return &GatewayService{
		cfg:     gc,
		baseURL: u,
		logger:  logger.With("component", "gateway_service"),
		metrics: m,
	}, nil
}

// Handle runs the gateway checks in order, each terminal on failure:
// preflight, method, origin, token. On success it returns the 302 redirect.
func (s *GatewayService) Handle(req *model.GatewayRequest) (*model.GatewayResponse, error) {
	if req.Method == http.MethodOptions {
		s.record(metrics.OutcomePreflight)
		return s.preflight(), nil
	}

	if req.Method != http.MethodGet {
		s.record(metrics.OutcomeMethodNotAllowed)
		return nil, ErrMethodNotAllowed
	}

	origin := req.Origin()
	if !s.originAllowed(origin) {
		s.record(metrics.OutcomeOriginForbidden)
		s.logger.Info("origin rejected", "origin", origin)
		return nil, ErrOriginNotAllowed
	}

	if s.cfg.Token == "" {
		s.record(metrics.OutcomeTokenMissing)
		return nil, ErrTokenNotConfigured
	}

	location := s.RedirectURL()
	s.record(metrics.OutcomeRedirect)
	s.logger.Debug("redirect issued",
		"origin", origin,
		"location", RedactToken(location),
	)

	h := make(http.Header)
	h.Set("Location", location)
	h.Set("Cache-Control", "no-store")
	h.Set("Access-Control-Allow-Origin", s.allowOrigin())
	return &model.GatewayResponse{StatusCode: http.StatusFound, Header: h}, nil
}

// RedirectURL composes the Origami URL: the base endpoint's own query
// parameters first, then token, then the collection id. The order is fixed.
func (s *GatewayService) RedirectURL() string {
	u := *s.baseURL

	q := u.Query()
	q.Del(tokenParam)
	q.Del(collectionIDParam)

	parts := make([]string, 0, 3)
	if existing := q.Encode(); existing != "" {
		parts = append(parts, existing)
	}
	parts = append(parts,
		tokenParam+"="+escapeQueryValue(s.cfg.Token),
		collectionIDParam+"="+escapeQueryValue(s.cfg.CollectionID),
	)
	u.RawQuery = strings.Join(parts, "&")

	return u.String()
}

// OriginCheckEnabled reports whether an allowed origin is configured.
func (s *GatewayService) OriginCheckEnabled() bool {
	return s.cfg.AllowedOrigin != ""
}

// TokenConfigured reports whether a token is available for injection.
func (s *GatewayService) TokenConfigured() bool {
	return s.cfg.Token != ""
}

// BaseEndpoint returns the configured redirect target without parameters.
func (s *GatewayService) BaseEndpoint() string {
	return s.cfg.BaseEndpoint
}

// CollectionID returns the collection identifier sent to Origami.
func (s *GatewayService) CollectionID() string {
	return s.cfg.CollectionID
}

func (s *GatewayService) preflight() *model.GatewayResponse {
	h := make(http.Header)
	h.Set("Access-Control-Allow-Origin", s.allowOrigin())
	h.Set("Access-Control-Allow-Methods", allowMethods)
	h.Set("Access-Control-Allow-Headers", allowHeaders)
	h.Set("Access-Control-Max-Age", maxAge)
	return &model.GatewayResponse{StatusCode: http.StatusNoContent, Header: h}
}

// originAllowed is a prefix match so that a Referer carrying a page path
// still passes. With no allowed origin configured every origin passes.
func (s *GatewayService) originAllowed(origin string) bool {
	if s.cfg.AllowedOrigin == "" {
		return true
	}
	return strings.HasPrefix(origin, s.cfg.AllowedOrigin)
}

func (s *GatewayService) allowOrigin() string {
	if s.cfg.AllowedOrigin == "" {
		return "*"
	}
	return s.cfg.AllowedOrigin
}

func (s *GatewayService) record(outcome string) {
	if s.metrics != nil {
		s.metrics.GatewayDecisions.WithLabelValues(outcome).Inc()
	}
}

// escapeQueryValue percent-encodes v for a query string, spaces as %20.
// url.QueryEscape already encodes a literal '+' as %2B, so every '+' left
// in its output stands for a space.
func escapeQueryValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

// RedactToken hides token values in URLs and error messages before logging.
func RedactToken(s string) string {
	return tokenPattern.ReplaceAllString(s, "${1}[REDACTED]")
}
