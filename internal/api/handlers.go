package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/LeventeLantos/sms-forwarder/internal/model"
	"github.com/LeventeLantos/sms-forwarder/internal/scheduler"
)

// Status exposes the forwarding state read by the API.
type Status interface {
	Watermark() (time.Time, bool)
	LastReport() (model.CycleReport, bool)
}

type Handler struct {
	sched  *scheduler.Scheduler
	status Status
}

func NewHandler(s *scheduler.Scheduler, st Status) *Handler {
	return &Handler{sched: s, status: st}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sched.IsRunning()})
}

func (h *Handler) SchedulerStart(w http.ResponseWriter, r *http.Request) {
	h.sched.Start()
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sched.IsRunning()})
}

func (h *Handler) SchedulerStop(w http.ResponseWriter, r *http.Request) {
	h.sched.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sched.IsRunning()})
}

func (h *Handler) Watermark(w http.ResponseWriter, r *http.Request) {
	ts, ok := h.status.Watermark()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"present": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"present":   true,
		"watermark": ts.Format(time.RFC3339Nano),
	})
}

func (h *Handler) LastCycle(w http.ResponseWriter, r *http.Request) {
	report, ok := h.status.LastReport()
	if !ok {
		http.Error(w, "no cycle has run yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
