package api

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

var indexPage = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>site-search</title></head>
<body>
<h1>site-search</h1>
<p>{{.Documents}} documents, {{.Terms}} terms indexed.</p>
<form action="/search" method="get">
<input type="text" name="q" autofocus>
<button type="submit">Search</button>
</form>
</body>
</html>
`))

func (s *Server) handleIndexPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexPage.Execute(w, struct {
		Documents int
		Terms     int
	}{
		Documents: s.searcher.DocCount(),
		Terms:     s.searcher.TermCount(),
	})
	if err != nil {
		s.logger.Error("failed to render index page", zap.Error(err))
	}
}

func (s *Server) handleRankedSearch(w http.ResponseWriter, r *http.Request) {
	query, ok := s.queryParam(w, r)
	if !ok {
		return
	}
	s.respondWithJSON(w, http.StatusOK, s.searcher.SearchRanked(query))
}

func (s *Server) handleAllTermsSearch(w http.ResponseWriter, r *http.Request) {
	query, ok := s.queryParam(w, r)
	if !ok {
		return
	}
	s.respondWithJSON(w, http.StatusOK, s.searcher.Search(query))
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Documents: s.searcher.DocCount(),
		Terms:     s.searcher.TermCount(),
	})
}

type healthResponse struct {
	Status    string `json:"status"`
	Documents int    `json:"documents"`
	Terms     int    `json:"terms"`
}

// queryParam reads q. A missing parameter is a client error; a blank one
// is a valid query that matches nothing.
func (s *Server) queryParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	values, present := r.URL.Query()["q"]
	if !present {
		s.respondWithError(w, http.StatusBadRequest, "q query parameter is required")
		return "", false
	}
	return strings.Join(values, " "), true
}

// --- Helper Functions ---

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
		code = http.StatusInternalServerError
		response = []byte(`{"error":"internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
