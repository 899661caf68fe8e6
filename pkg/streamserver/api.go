/*
Copyright © 2024 Alexandre Pires

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package streamserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/yomguy/servestream-sub001/pkg/backup"
	"github.com/yomguy/servestream-sub001/pkg/logger"
	"github.com/yomguy/servestream-sub001/pkg/streamdb"
)

const maxRequestBody = 8 << 20

func (s *Server) registerAPIRoutes(r *mux.Router) *mux.Router {
	r.HandleFunc("/api/v1/authenticate", s.basicAuth(authenticateRequest))
	r.HandleFunc("/api/v1/resolve", s.bearerAuth(s.resolveRequest))
	r.HandleFunc("/api/v1/streams", s.bearerAuth(s.streamsRequest))
	r.HandleFunc("/api/v1/streams/{id:[0-9]+}", s.bearerAuth(s.streamRequest))
	r.HandleFunc("/api/v1/media", s.bearerAuth(s.mediaRequest))
	r.HandleFunc("/api/v1/backup", s.adminAccess(s.backupRequest))
	r.HandleFunc("/api/v1/enrich", s.adminAccess(s.enrichRequest))
	r.HandleFunc("/api/v1/enrich/{id}", s.bearerAuth(s.enrichJobRequest))
	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warnf("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(v)
}

func authenticateRequest(w http.ResponseWriter, r *http.Request) {
	token, _ := r.Context().Value(tokenKey).(string)
	user, _ := r.Context().Value(userKey).(string)
	writeJSON(w, http.StatusOK, map[string]string{
		"role":  roleOf(r),
		"user":  user,
		"token": token,
	})
}

type resolveBody struct {
	URL string `json:"url"`
}

func (s *Server) resolveRequest(w http.ResponseWriter, r *http.Request) {

	switch r.Method {
	case http.MethodPost:
		body := resolveBody{}
		if err := decodeBody(w, r, &body); err != nil || body.URL == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, s.resolver.Resolve(r.Context(), body.URL))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type streamBody struct {
	URL      string  `json:"url"`
	Nickname *string `json:"nickname,omitempty"`
	Position *int    `json:"position,omitempty"`
}

func (s *Server) streamsRequest(w http.ResponseWriter, r *http.Request) {

	switch r.Method {
	case http.MethodGet:
		recs, err := s.store.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, recs)
	case http.MethodPost:
		if !requireAdmin(w, r) {
			return
		}
		body := streamBody{}
		if err := decodeBody(w, r, &body); err != nil || body.URL == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		t, u, err := s.registry.Parse(body.URL)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		rec, created, err := s.store.FindOrCreate(r.Context(), t.SelectionArgs(u), func() *streamdb.StreamRecord {
			rec := t.NewStreamRecord(u)
			if body.Nickname != nil && *body.Nickname != "" {
				rec.Nickname = *body.Nickname
			}
			return rec
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJSON(w, status, rec)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) streamRequest(w http.ResponseWriter, r *http.Request) {

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := s.store.Find(r.Context(), id)
		if err != nil {
			storeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	case http.MethodPut:
		if !requireAdmin(w, r) {
			return
		}
		body := streamBody{}
		if err := decodeBody(w, r, &body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		rec, err := s.store.Find(r.Context(), id)
		if err != nil {
			storeError(w, err)
			return
		}
		if body.Nickname != nil {
			rec.Nickname = *body.Nickname
			if err := s.store.Update(r.Context(), rec); err != nil {
				storeError(w, err)
				return
			}
		}
		if body.Position != nil {
			if err := s.store.Move(r.Context(), id, *body.Position); err != nil {
				storeError(w, err)
				return
			}
		}
		rec, err = s.store.Find(r.Context(), id)
		if err != nil {
			storeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	case http.MethodDelete:
		if !requireAdmin(w, r) {
			return
		}
		if err := s.store.Delete(r.Context(), id); err != nil {
			storeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, streamdb.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}

func parseIDs(raw string) ([]int64, error) {
	ids := make([]int64, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Server) mediaRequest(w http.ResponseWriter, r *http.Request) {

	switch r.Method {
	case http.MethodGet:
		raw := r.URL.Query().Get("ids")
		if raw == "" {
			files, err := s.store.ListMedia(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, files)
			return
		}
		ids, err := parseIDs(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		files, err := s.store.MediaByIDs(r.Context(), ids)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, files)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) backupRequest(w http.ResponseWriter, r *http.Request) {

	switch r.Method {
	case http.MethodGet:
		recs, err := s.store.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		w.Header().Set("Content-Disposition", `attachment; filename="backup.xml"`)
		w.WriteHeader(http.StatusOK)
		if err := backup.Export(w, recs); err != nil {
			logger.Errorf("Failed to export backup: %v", err)
		}
	case http.MethodPost:
		report, err := backup.Restore(r.Context(), s.store, s.registry, http.MaxBytesReader(w, r.Body, maxRequestBody))
		if err != nil {
			if errors.Is(err, backup.ErrInvalidBackup) {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) enrichRequest(w http.ResponseWriter, r *http.Request) {

	switch r.Method {
	case http.MethodPost:
		job, err := s.jobs.start(s.ctx, s.enricher.RunAll)
		if errors.Is(err, ErrJobRunning) {
			writeJSON(w, http.StatusConflict, job)
			return
		}
		writeJSON(w, http.StatusAccepted, job)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) enrichJobRequest(w http.ResponseWriter, r *http.Request) {

	switch r.Method {
	case http.MethodGet:
		job, ok := s.jobs.get(mux.Vars(r)["id"])
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, job)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
