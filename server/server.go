// Package server is the HTTP-facing orchestrator: it accepts document-pair
// uploads, runs structural validation and/or the agent classification, and
// shapes every internal failure into one of the normalized response forms.
// Clients never see a stack trace.
package server

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/valmera/docgate/docval"
	"github.com/valmera/docgate/gemini"
)

// Classifier is the gateway surface the orchestrator needs. Satisfied by
// *gemini.Gateway.
type Classifier interface {
	Classify(ctx context.Context, pdfPath, xmlPath string) (*gemini.Result, error)
}

// Profile is the session configuration exposed on /debug_profile.
type Profile struct {
	AgentURL    string `json:"agent_url"`
	UserDataDir string `json:"user_data_dir"`
	ProfileDir  string `json:"profile_dir"`
	Headless    bool   `json:"headless"`
}

// Service wires the validator and the classifier gateway behind the HTTP
// surface.
type Service struct {
	validator  *docval.Validator
	classifier Classifier
	profile    Profile
	metrics    *Metrics
	logger     *slog.Logger
}

// New creates the orchestrator service.
func New(validator *docval.Validator, classifier Classifier, profile Profile, metrics *Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Service{
		validator:  validator,
		classifier: classifier,
		profile:    profile,
		metrics:    metrics,
		logger:     logger,
	}
}

// RegisterHTTP mounts the service endpoints on a chi router.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Post("/validate", s.handleValidate)
	r.Post("/validate_via_gemini", s.handleClassify)
	r.Get("/health", s.handleHealth)
	r.Get("/debug_profile", s.handleDebugProfile)
	r.Handle("/metrics", s.metrics.Handler())
}
