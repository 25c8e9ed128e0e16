package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/precedent/internal/artifact"
	"github.com/hyperjump/precedent/internal/models"
	"github.com/hyperjump/precedent/internal/search"
	"github.com/hyperjump/precedent/internal/storage"
)

func (s *Server) decodeQuery(w http.ResponseWriter, r *http.Request) (*models.RetrieveQuery, *search.Engine, bool) {
	var q models.RetrieveQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return nil, nil, false
	}
	engine := s.holder.Engine()
	if engine == nil {
		s.respondError(w, http.StatusServiceUnavailable, search.ErrIndexNotBuilt.Error())
		return nil, nil, false
	}
	return &q, engine, true
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	q, engine, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}
	s.logger.Debug("retrieve request", zap.String("query", q.Query), zap.Int("k", q.K))
	resp, err := engine.Retrieve(r.Context(), q)
	if err != nil {
		s.respondQueryError(w, "retrieve", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	q, engine, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}
	s.logger.Debug("explain request", zap.String("query", q.Query), zap.Int("k", q.K))
	p, err := engine.ExplainTop(r.Context(), q)
	if err != nil {
		s.respondQueryError(w, "explain", err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	q, engine, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}
	s.logger.Debug("similar request", zap.String("query", q.Query), zap.Int("k", q.K))
	resp, err := engine.Similar(r.Context(), q)
	if err != nil {
		s.respondQueryError(w, "similar", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{}
	if engine := s.holder.Engine(); engine != nil {
		resp["index"] = engine.Status()
		resp["ready"] = true
	} else {
		resp["ready"] = false
	}

	if s.config != nil {
		paths := artifact.PathsFromConfig(s.config)
		resp["config"] = map[string]interface{}{
			"corpus_path":          s.config.Corpus.Path,
			"artifacts_dir":        paths.Dir,
			"embedding_provider":   s.config.Embedding.Provider,
			"embedding_dimensions": s.config.Embedding.Dimensions,
			"vector_index_type":    s.config.Vector.IndexType,
			"min_text_length":      s.config.Retrieval.MinTextLength,
		}
		usage, err := storage.DiskUsage(paths.Vectors, paths.Metadata, paths.Checkpoint, paths.Index)
		if err == nil {
			resp["disk_usage_bytes"] = usage.Total
			resp["artifacts"] = usage.Paths
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.reload == nil {
		s.respondError(w, http.StatusNotImplemented, "reload not enabled")
		return
	}
	if err := s.reload(r.Context()); err != nil {
		s.logger.Error("reload failed", zap.Error(err))
		s.respondQueryError(w, "reload", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

func (s *Server) respondQueryError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, models.ErrEmptyQuery):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, search.ErrIndexNotBuilt), errors.Is(err, search.ErrIndexInconsistent):
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error(op+" failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
