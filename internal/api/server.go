package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/azure/filedrop/internal/metrics"
	"github.com/azure/filedrop/internal/models"
	"github.com/azure/filedrop/internal/storage"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// multipartMemory is the part of an upload kept in memory before the form
// parser spills to disk.
const multipartMemory = 8 << 20

// StatsProvider exposes activity metrics as JSON
type StatsProvider interface {
	GetMetrics() string
}

// Server translates HTTP requests into storage operations
type Server struct {
	storage       storage.StorageInterface
	stats         StatsProvider
	maxUploadSize int64
}

// NewServer creates a new API server. stats may be nil.
func NewServer(store storage.StorageInterface, stats StatsProvider, maxUploadSize int64) *Server {
	return &Server{
		storage:       store,
		stats:         stats,
		maxUploadSize: maxUploadSize,
	}
}

// Router builds the HTTP routes. Paths are matched on their encoded form so
// that an encoded separator inside a name reaches name validation instead of
// being treated as a path segment.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter().UseEncodedPath()
	router.Use(metrics.Middleware)

	router.HandleFunc("/upload", s.uploadHandler).Methods("POST")
	router.HandleFunc("/list", s.listHandler).Methods("GET")
	router.HandleFunc("/download/{filename}", s.downloadHandler).Methods("GET")
	router.HandleFunc("/delete/{filename}", s.deleteHandler).Methods("DELETE")

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")
	router.HandleFunc("/stats", s.statsHandler).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	return router
}

func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.maxUploadSize {
		respondError(w, http.StatusRequestEntityTooLarge, "upload exceeds the size limit")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "upload exceeds the size limit")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "no file part in request")
		return
	}

	header := files[0]
	data, err := readPart(header)
	if err != nil {
		logrus.Errorf("Failed to read uploaded file: %v", err)
		respondError(w, http.StatusBadRequest, "could not read uploaded file")
		return
	}

	stored, err := s.storage.Put(rawFilename(header), data)
	if err != nil {
		respondStorageError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, models.UploadResponse{Filename: stored})
}

// rawFilename returns the filename exactly as the client sent it. The
// multipart package strips directories from FileHeader.Filename, which would
// silently turn "../secret" into "secret".
func rawFilename(header *multipart.FileHeader) string {
	if _, params, err := mime.ParseMediaType(header.Header.Get("Content-Disposition")); err == nil {
		if name, ok := params["filename"]; ok {
			return name
		}
	}
	return header.Filename
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Server) listHandler(w http.ResponseWriter, r *http.Request) {
	names, err := s.storage.List()
	if err != nil {
		respondStorageError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}

	respondJSON(w, http.StatusOK, models.ListResponse{Files: names})
}

func (s *Server) downloadHandler(w http.ResponseWriter, r *http.Request) {
	name, ok := pathName(w, r)
	if !ok {
		return
	}

	data, err := s.storage.Get(name)
	if err != nil {
		respondStorageError(w, err)
		return
	}

	// FormatMediaType returns "" for parameters it cannot serialize.
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": name})
	if disposition == "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", disposition)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) deleteHandler(w http.ResponseWriter, r *http.Request) {
	name, ok := pathName(w, r)
	if !ok {
		return
	}

	if err := s.storage.Delete(name); err != nil {
		respondStorageError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// pathName decodes the filename route variable once.
func pathName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name, err := url.PathUnescape(mux.Vars(r)["filename"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed file name encoding")
		return "", false
	}
	return name, true
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	body := "{}"
	if s.stats != nil {
		body = s.stats.GetMetrics()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

// StatusFor maps a storage error onto an HTTP status code
func StatusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondStorageError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		// Server-side details stay in the log.
		logrus.Errorf("Request failed: %v", err)
		message = storage.ErrStorage.Error()
	}
	respondError(w, status, message)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, models.ErrorResponse{Error: message})
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}
