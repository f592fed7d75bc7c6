package handlers

import (
	"net/http"
)

type healthResponse struct {
	Status      string `json:"status"`
	TrackedJobs int    `json:"trackedJobs"`
}

// Health reports liveness plus the current registry population, which is
// the one piece of state worth eyeballing on a process with no database.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, healthResponse{
		Status:      "ok",
		TrackedJobs: a.Service.JobCount(),
	})
}
