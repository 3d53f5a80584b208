package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/SohaAshraff/Virtual-Try-On-Integration-for-3D-Body-Mesh/mesh"
)

// FitResponse is the HTTP response body for a fitting request.
type FitResponse struct {
	Fitted     *mesh.MeshDocument `json:"fitted"`
	Gender     string             `json:"gender"`
	Converged  bool               `json:"converged"`
	Iterations int                `json:"iterations"`
	Error      float64            `json:"error"`
	Scale      float64            `json:"scale"`
}

// newHTTPServer creates an HTTP server with all endpoints
func newHTTPServer(app *App) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := struct {
			Status    string             `json:"status"`
			Timestamp time.Time          `json:"timestamp"`
			LastFit   *mesh.FittingEvent `json:"lastFit,omitempty"`
		}{
			Status:    "ok",
			Timestamp: time.Now(),
			LastFit:   app.LastEvent(),
		}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Printf("Error encoding health status: %v", err)
		}
	})

	// Fitting endpoint
	mux.HandleFunc("/api/fit", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req mesh.FitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request JSON: "+err.Error(), http.StatusBadRequest)
			return
		}

		result, err := app.handleRequest(&req)
		if err != nil {
			log.Printf("[HTTP] fitting request from %s failed: %v", r.RemoteAddr, err)
			status := http.StatusInternalServerError
			if errors.Is(err, mesh.ErrInvalidMesh) ||
				errors.Is(err, mesh.ErrFittingFailed) ||
				errors.Is(err, mesh.ErrDegenerateInput) {
				status = http.StatusBadRequest
			}
			http.Error(w, err.Error(), status)
			return
		}

		resp := FitResponse{
			Fitted:     mesh.DocumentFromMesh(result.Garment),
			Gender:     string(result.Gender),
			Converged:  result.ICP.Converged,
			Iterations: result.ICP.Iterations,
			Error:      result.ICP.Error,
			Scale:      result.Transform.Scale,
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Printf("Error encoding fit response: %v", err)
		}
	})

	return mux
}
