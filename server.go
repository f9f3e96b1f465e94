package main

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/text/language"

	"go-pkpass/images"
	"go-pkpass/locale"
	"go-pkpass/models"
	"go-pkpass/pkpass"
)

const ErrorInternal = "error:internal"
const ErrorNotFound = "error:not_found"
const ERR_MARSHAL = "failed to marshal response message"
const ERR_READ_BODY = "failed to read request body"
const ERR_STORE_PASS = "failed to store pass"
const ERR_LOAD_PASS = "failed to load pass"

const (
	DefaultMaxUploadBytes = 10 << 20
	maxDevicePixelRatio   = 3
	pkpassContentType     = "application/vnd.apple.pkpass"
)

type ServerConfig struct {
	Host           string `json:"host" env:"HOST"`
	Port           int    `json:"port" env:"PORT"`
	UseTls         bool   `json:"use_tls,omitempty" env:"USE_TLS"`
	TlsPrivKeyPath string `json:"tls_priv_key_path,omitempty" env:"TLS_PRIV_KEY_PATH"`
	TlsCertPath    string `json:"tls_cert_path,omitempty" env:"TLS_CERT_PATH"`
	MaxUploadBytes int64  `json:"max_upload_bytes,omitempty" env:"MAX_UPLOAD_BYTES"`
}

type ServerState struct {
	passStorage     PassStorage
	documents       *DocumentCache
	converter       SummaryConverter
	metrics         *Metrics
	defaultLanguage language.Tag
	maxUploadBytes  int64
}

type Server struct {
	server *http.Server
	config ServerConfig
}

func (s *Server) ListenAndServe() error {
	if s.config.UseTls {
		slog.Info("Starting server with TLS", "host", s.config.Host, "port", s.config.Port, "cert", s.config.TlsCertPath, "key", s.config.TlsPrivKeyPath)
		return s.server.ListenAndServeTLS(s.config.TlsCertPath, s.config.TlsPrivKeyPath)
	}
	slog.Info("Starting server without TLS", "host", s.config.Host, "port", s.config.Port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop() error {
	slog.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	if err != nil {
		slog.Error("Error during server shutdown", "error", err)
	} else {
		slog.Info("Server shut down successfully")
	}
	return err
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func NewServer(state *ServerState, config ServerConfig) (*Server, error) {
	slog.Info("Creating new server", "host", config.Host, "port", config.Port, "tls", config.UseTls)
	router := mux.NewRouter()

	router.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("Health check request received")
		if err := writeJSON(w, http.StatusOK, map[string]bool{"ok": true}); err != nil {
			slog.Error("failed to write body to http response", "error", err)
		}
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/passes", func(w http.ResponseWriter, r *http.Request) {
		handleUploadPass(state, w, r)
	})
	router.HandleFunc("/api/passes/{id}", func(w http.ResponseWriter, r *http.Request) {
		handleGetPass(state, w, r)
	}).Methods(http.MethodGet)
	router.HandleFunc("/api/passes/{id}", func(w http.ResponseWriter, r *http.Request) {
		handleDeletePass(state, w, r)
	}).Methods(http.MethodDelete)
	router.HandleFunc("/api/passes/{id}/raw", func(w http.ResponseWriter, r *http.Request) {
		handleGetRawPass(state, w, r)
	}).Methods(http.MethodGet)
	router.HandleFunc("/api/passes/{id}/images/{name}", func(w http.ResponseWriter, r *http.Request) {
		handleGetImage(state, w, r)
	}).Methods(http.MethodGet)
	router.HandleFunc("/api/bundles", func(w http.ResponseWriter, r *http.Request) {
		handleUploadBundle(state, w, r)
	})
	router.Handle("/metrics", state.metrics.Handler()).Methods(http.MethodGet)

	slog.Debug("Registered all API routes")

	addr := fmt.Sprintf("%v:%v", config.Host, config.Port)
	srv := &http.Server{
		Handler:      router,
		Addr:         addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	slog.Info("Server created successfully", "address", addr)
	return &Server{
		server: srv,
		config: config,
	}, nil
}

func handleUploadPass(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)

	if !requirePOST(w, r) {
		return
	}

	data, err := readBody(state, w, r)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, "error:body", ERR_READ_BODY, err)
		return
	}
	slog.Info("Received pass upload", "size", len(data))

	loc := requestLocale(state, r)
	doc, err := pkpass.FromBytes(data, pkpass.WithLocale(loc))
	if err != nil {
		kind := loadErrorKind(err)
		state.metrics.passLoads.WithLabelValues(kind).Inc()
		slog.Info("Rejected pass upload", "kind", kind, "error", err)
		if err := writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: kind, Message: err.Error()}); err != nil {
			respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		}
		return
	}
	state.metrics.passLoads.WithLabelValues("ok").Inc()

	id := uuid.NewString()
	if err := state.passStorage.StorePass(id, data); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_STORE_PASS, err)
		return
	}
	state.documents.Put(id, loc, doc)

	summary := state.converter.ToPassSummary(id, doc)
	if err := writeJSON(w, http.StatusCreated, summary); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		return
	}
	slog.Info("Pass stored", "id", id, "type", doc.Type(), "serial_number", doc.SerialNumber())
}

func handleUploadBundle(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)

	if !requirePOST(w, r) {
		return
	}

	data, err := readBody(state, w, r)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, "error:body", ERR_READ_BODY, err)
		return
	}

	bundle, err := pkpass.BundleFromBytes(data)
	if err != nil {
		state.metrics.passLoads.WithLabelValues(loadErrorKind(err)).Inc()
		if err := writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: loadErrorKind(err), Message: err.Error()}); err != nil {
			respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		}
		return
	}

	loc := requestLocale(state, r)
	response := models.BundleResponse{Entries: []models.BundleEntry{}}
	for _, name := range bundle.Entries() {
		entry := models.BundleEntry{Name: name}
		passData := bundle.PassData(name)

		doc, err := pkpass.FromBytes(passData, pkpass.WithLocale(loc))
		if err != nil {
			entry.Error = loadErrorKind(err)
			state.metrics.passLoads.WithLabelValues(entry.Error).Inc()
			slog.Debug("Skipping bundle entry", "name", name, "error", err)
			response.Entries = append(response.Entries, entry)
			continue
		}
		state.metrics.passLoads.WithLabelValues("ok").Inc()

		id := uuid.NewString()
		if err := state.passStorage.StorePass(id, passData); err != nil {
			respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_STORE_PASS, err)
			return
		}
		state.documents.Put(id, loc, doc)

		entry.ID = id
		entry.SerialNumber = doc.SerialNumber()
		response.Entries = append(response.Entries, entry)
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		return
	}
	slog.Info("Bundle processed", "entries", len(response.Entries))
}

func handleGetPass(state *ServerState, w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	doc, ok := loadStoredPass(state, w, r, id)
	if !ok {
		return
	}

	if err := writeJSON(w, http.StatusOK, state.converter.ToPassSummary(id, doc)); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
	}
}

func handleGetRawPass(state *ServerState, w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	data, err := state.passStorage.RetrievePass(id)
	if errors.Is(err, ErrPassNotFound) {
		respondWithErr(w, http.StatusNotFound, ErrorNotFound, "pass not found", err)
		return
	}
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_LOAD_PASS, err)
		return
	}

	w.Header().Set("Content-Type", pkpassContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
}

func handleGetImage(state *ServerState, w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, name := vars["id"], vars["name"]

	dpr, err := queryInt(r, "dpr", 1)
	if err != nil || dpr < 1 || dpr > maxDevicePixelRatio {
		respondWithErr(w, http.StatusBadRequest, "error:dpr", "invalid device pixel ratio", err)
		return
	}
	maxSize, err := queryInt(r, "max", 0)
	if err != nil || maxSize < 0 {
		respondWithErr(w, http.StatusBadRequest, "error:max", "invalid maximum size", err)
		return
	}

	doc, ok := loadStoredPass(state, w, r, id)
	if !ok {
		return
	}

	img, ratio := doc.ImageWithRatio(name, dpr)
	if img == nil {
		state.metrics.imageRequests.WithLabelValues("missing").Inc()
		respondWithErr(w, http.StatusNotFound, ErrorNotFound, "image not found", fmt.Errorf("no image %s in pass %s", name, id))
		return
	}

	data, err := images.EncodePNG(img, maxSize, maxSize, png.DefaultCompression)
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "failed to encode image", err)
		return
	}
	state.metrics.imageRequests.WithLabelValues("served").Inc()

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Device-Pixel-Ratio", strconv.Itoa(ratio))
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
}

func handleDeletePass(state *ServerState, w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := state.passStorage.RemovePass(id)
	if errors.Is(err, ErrPassNotFound) {
		respondWithErr(w, http.StatusNotFound, ErrorNotFound, "pass not found", err)
		return
	}
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "failed to remove pass", err)
		return
	}
	state.documents.Invalidate(id)

	slog.Info("Pass removed", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// helpers ------------

func loadStoredPass(state *ServerState, w http.ResponseWriter, r *http.Request, id string) (*pkpass.Document, bool) {
	doc, err := state.documents.Get(id, requestLocale(state, r))
	if errors.Is(err, ErrPassNotFound) {
		respondWithErr(w, http.StatusNotFound, ErrorNotFound, "pass not found", err)
		return nil, false
	}
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_LOAD_PASS, err)
		return nil, false
	}
	return doc, true
}

func requestLocale(state *ServerState, r *http.Request) *locale.Locale {
	return locale.FromAcceptLanguage(r.Header.Get("Accept-Language"), state.defaultLanguage, locale.WithLocation(time.UTC))
}

// loadErrorKind names the construction error for API responses and metrics.
func loadErrorKind(err error) string {
	switch {
	case errors.Is(err, pkpass.ErrArchive):
		return "archive"
	case errors.Is(err, pkpass.ErrMissingManifest):
		return "missing_manifest"
	case errors.Is(err, pkpass.ErrManifestParse):
		return "manifest_parse"
	case errors.Is(err, pkpass.ErrUnsupportedVersion):
		return "unsupported_version"
	case errors.Is(err, pkpass.ErrMissingPassData):
		return "missing_pass_data"
	default:
		return "unknown"
	}
}

func readBody(state *ServerState, w http.ResponseWriter, r *http.Request) ([]byte, error) {
	limit := state.maxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty request body")
	}
	return data, nil
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return fallback, nil
	}
	return strconv.Atoi(s)
}

func respondWithErr(w http.ResponseWriter, code int, responseBody string, logMsg string, e error) {
	slog.Error(logMsg, "error", e, "status_code", code, "response_body", responseBody)
	w.WriteHeader(code)
	if _, err := w.Write([]byte(responseBody)); err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
}

func closeRequestBody(r *http.Request) {
	if err := r.Body.Close(); err != nil {
		slog.Error("failed to close request body", "error", err)
	}
}

func requirePOST(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		slog.Debug("Non-POST request rejected", "method", r.Method, "path", r.URL.Path)
		respondWithErr(w, http.StatusMethodNotAllowed, "method not allowed", "invalid method", nil)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	slog.Debug("Writing JSON response", "status_code", status)
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to marshal JSON payload", "error", err)
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(payload)
	if err != nil {
		slog.Error("failed to write body to http response", "error", err)
	} else {
		slog.Debug("JSON response written successfully", "status_code", status, "payload_size", len(payload))
	}
	return nil
}
