// Package server provides the HTTP server for the inbound access point.
//
// # Inbound Endpoint
//
// POST {basePath}/inbound - Receives SOAP messages carrying BusDox transport
// headers. The body is either a SOAP envelope or a multipart/related
// message whose first part is the envelope. A stored message is
// acknowledged with an empty SOAP response; failures produce a SOAP fault
// (400 for problems with the request, 500 for storage problems).
//
// # Message Listing
//
//   - GET {basePath}/messages/{recipientID}/{senderID} - descriptors of the
//     messages stored for a recipient/sender pair
//
// # Health
//
//   - GET /health - Liveness probe
//   - GET /ready  - Readiness probe, checks both storage roots are writable
package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirosfoundation/go-peppol-inbound/internal/as4"
	"github.com/sirosfoundation/go-peppol-inbound/internal/config"
	"github.com/sirosfoundation/go-peppol-inbound/pkg/identifier"
	"github.com/sirosfoundation/go-peppol-inbound/pkg/reliability"
	"github.com/sirosfoundation/go-peppol-inbound/pkg/repository"
	"github.com/sirosfoundation/go-peppol-inbound/pkg/soap"
)

// Server is the inbound access point HTTP server
type Server struct {
	config     *config.Config
	logger     *slog.Logger
	httpSrv    *http.Server
	duplicates *reliability.DuplicateDetector
	as4Handler *as4.Handler
}

// New creates a new server
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		config: cfg,
		logger: logger,
	}

	var tlsConfig *tls.Config
	if cfg.Server.TLS.Enabled {
		var err error
		if tlsConfig, err = newTLSConfig(cfg); err != nil {
			return nil, err
		}
	}

	repo := repository.NewFileRepository(
		repository.WithLogger(logger),
		repository.WithRenderer(repository.XMLRenderer{Indent: cfg.Storage.Indent}),
		repository.WithAtomicWrites(cfg.Storage.AtomicWrites),
	)

	if cfg.Reliability.DuplicateWindow > 0 {
		s.duplicates = reliability.NewDuplicateDetector(cfg.Reliability.DuplicateWindow)
	}

	s.as4Handler = as4.NewHandler(&as4.Config{
		Repository:   repo,
		InboundRoot:  cfg.Storage.InboundRoot,
		OutboundRoot: cfg.Storage.OutboundRoot,
		Duplicates:   s.duplicates,
		Logger:       logger,
	})

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpSrv = &http.Server{
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
		TLSConfig:    tlsConfig,
	}

	return s, nil
}

// newTLSConfig requests client certificates so the sending access point can
// be identified from the connection
func newTLSConfig(cfg *config.Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		ClientAuth: tls.RequestClientCert,
	}

	if cfg.Server.TLS.ClientCAFile != "" {
		pemData, err := os.ReadFile(cfg.Server.TLS.ClientCAFile)
		if err != nil {
			return nil, fmt.Errorf("reading client CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pemData) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.Server.TLS.ClientCAFile)
		}
		tlsConfig.ClientCAs = pool
		tlsConfig.ClientAuth = tls.VerifyClientCertIfGiven
	}

	return tlsConfig, nil
}

// Handler returns the HTTP handler serving all routes
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start begins listening on the specified address
func (s *Server) Start(addr string) error {
	s.httpSrv.Addr = addr
	s.logger.Info("starting server", "addr", addr, "tls", s.config.Server.TLS.Enabled)
	if s.config.Server.TLS.Enabled {
		return s.httpSrv.ListenAndServeTLS(
			s.config.Server.TLS.CertFile,
			s.config.Server.TLS.KeyFile,
		)
	}
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		return err
	}
	if s.duplicates != nil {
		return s.duplicates.Close()
	}
	return nil
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	basePath := strings.TrimSuffix(s.config.Server.BasePath, "/")

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)

	mux.HandleFunc("POST "+basePath+"/inbound", s.withBodyLimit(s.handleInbound))
	mux.HandleFunc("GET "+basePath+"/messages/{recipientID}/{senderID}", s.handleListMessages)
}

// withBodyLimit caps the request body at the configured size
func (s *Server) withBodyLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.Server.MaxBodyBytes)
		next(w, r)
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	for _, root := range []string{s.config.Storage.InboundRoot, s.config.Storage.OutboundRoot} {
		if err := repository.EnsureWritable(root); err != nil {
			s.logger.Error("storage root not usable", "root", root, "error", err)
			s.jsonError(w, "storage not ready", http.StatusServiceUnavailable)
			return
		}
	}
	s.jsonResponse(w, map[string]string{"status": "ready"}, http.StatusOK)
}

// Inbound handlers

func (s *Server) handleInbound(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("received inbound message",
		"content-type", r.Header.Get("Content-Type"),
		"content-length", r.ContentLength,
		"tls", r.TLS != nil,
	)

	result, err := s.as4Handler.HandleInbound(r.Context(), r)
	if err != nil {
		s.writeFault(w, err)
		return
	}

	s.logger.Info("inbound message processed",
		"message_id", result.MessageID,
		"receipt_id", result.ReceiptID,
		"duplicate", result.Duplicate,
		"diagnostics", len(result.Diagnostics),
	)

	response, err := soap.Response(result.Namespace)
	if err != nil {
		s.logger.Error("response generation failed", "error", err)
		http.Error(w, "response generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", soapContentType(result.Namespace))
	w.Header().Set("X-Receipt-ID", result.ReceiptID)
	w.WriteHeader(http.StatusOK)
	w.Write(response)
}

func (s *Server) writeFault(w http.ResponseWriter, err error) {
	var namespace string
	var inErr *as4.InboundError
	if errors.As(err, &inErr) {
		namespace = inErr.Namespace
	}

	status, code := http.StatusInternalServerError, soap.FaultReceiver
	var maxBytes *http.MaxBytesError
	switch {
	case as4.IsClientError(err):
		status, code = http.StatusBadRequest, soap.FaultSender
	case errors.As(err, &maxBytes):
		status, code = http.StatusRequestEntityTooLarge, soap.FaultSender
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("inbound processing failed", "error", err)
	} else {
		s.logger.Warn("inbound message rejected", "error", err)
	}

	fault, ferr := soap.Fault(namespace, code, err.Error())
	if ferr != nil {
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", soapContentType(namespace))
	w.WriteHeader(status)
	w.Write(fault)
}

func soapContentType(namespace string) string {
	if namespace == soap.NsSOAP12 {
		return "application/soap+xml; charset=utf-8"
	}
	return "text/xml; charset=utf-8"
}

// Message handlers

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	recipient := identifier.NewParticipantID("", r.PathValue("recipientID"))
	sender := identifier.NewParticipantID("", r.PathValue("senderID"))

	descriptors, err := repository.ListInbound(s.config.Storage.InboundRoot, recipient, sender)
	if errors.Is(err, repository.ErrOutsideRoot) {
		s.jsonError(w, "invalid participant identifier", http.StatusBadRequest)
		return
	}
	if err != nil {
		s.logger.Error("failed to list messages", "error", err)
		s.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if descriptors == nil {
		descriptors = []*repository.Descriptor{}
	}

	s.jsonResponse(w, map[string]interface{}{
		"messages": descriptors,
		"total":    len(descriptors),
	}, http.StatusOK)
}

// Helper functions

func (s *Server) jsonResponse(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) jsonError(w http.ResponseWriter, message string, status int) {
	s.jsonResponse(w, map[string]string{"error": message}, status)
}
