package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"codequad/internal/services"
)

// ServicesAPI proxies the external collaborators (AI review, code execution,
// API scaffolding). Upstream failures map to 502; the caller sees the cause.
type ServicesAPI struct {
	Log      *slog.Logger
	Review   *services.ReviewClient
	Run      *services.RunClient
	Scaffold *services.ScaffoldClient
}

type reviewReq struct {
	Code string `json:"code"`
}

type reviewResp struct {
	Review string `json:"review"`
}

// GetReview proxies a code review request to the AI backend.
func (a *ServicesAPI) GetReview(w http.ResponseWriter, r *http.Request) {
	var req reviewReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}

	text, err := a.Review.Review(r.Context(), req.Code)
	if err != nil {
		a.Log.Error("api.review", "err", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, reviewResp{Review: text})
}

// Runtimes lists the languages the execution service supports.
func (a *ServicesAPI) Runtimes(w http.ResponseWriter, r *http.Request) {
	langs, err := a.Run.Runtimes(r.Context())
	if err != nil {
		a.Log.Error("api.runtimes", "err", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, langs)
}

// RunCode executes source text via the sandbox service.
func (a *ServicesAPI) RunCode(w http.ResponseWriter, r *http.Request) {
	var req services.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Language == "" {
		http.Error(w, "language is required", http.StatusBadRequest)
		return
	}

	out, err := a.Run.Execute(r.Context(), req)
	if err != nil {
		a.Log.Error("api.run", "err", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, out)
}

type scaffoldResp struct {
	Code string `json:"code"`
}

// GenerateAPI proxies a scaffold request to the generator service.
func (a *ServicesAPI) GenerateAPI(w http.ResponseWriter, r *http.Request) {
	var req services.ScaffoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Routes) == 0 {
		http.Error(w, "at least one route is required", http.StatusBadRequest)
		return
	}

	code, err := a.Scaffold.Generate(r.Context(), req)
	if err != nil {
		a.Log.Error("api.generate", "err", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, scaffoldResp{Code: code})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
