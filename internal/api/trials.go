package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/snarg/accent-trainer/internal/accent"
	"github.com/snarg/accent-trainer/internal/gateway"
	"github.com/snarg/accent-trainer/internal/trainer"
)

// TrainerHandler exposes the trial workflow and playback transport over HTTP.
type TrainerHandler struct {
	ctrl    *trainer.Controller
	accents *accent.Set
}

func NewTrainerHandler(ctrl *trainer.Controller, accents *accent.Set) *TrainerHandler {
	return &TrainerHandler{ctrl: ctrl, accents: accents}
}

// Routes registers trainer routes on the given router.
func (h *TrainerHandler) Routes(r chi.Router) {
	r.Post("/trials", h.StartTrial)
	r.Get("/state", h.State)
	r.Get("/accents", h.Accents)
	r.Put("/accent", h.ChangeAccent)
	r.Put("/transcript", h.UpdateTranscript)
	r.Post("/submissions", h.Submit)
	r.Get("/audio", h.Audio)

	r.Post("/playback/play", h.Play)
	r.Post("/playback/pause", h.Pause)
	r.Post("/playback/replay", h.Replay)
	r.Post("/playback/seek", h.Seek)
	r.Post("/playback/speed", h.Speed)
}

// StartTrial fetches a new prompt, synthesizes audio for the selected accent,
// and starts playback. Responds with the post-trial state snapshot.
func (h *TrainerHandler) StartTrial(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.StartNewTrial(r.Context()); err != nil {
		h.writeTrialError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, h.ctrl.Snapshot())
}

// State returns the full trial and playback snapshot.
func (h *TrainerHandler) State(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// Accents lists the configured accents in display order.
func (h *TrainerHandler) Accents(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"accents": h.accents.List()})
}

func (h *TrainerHandler) ChangeAccent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Accent string `json:"accent"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Accent == "" {
		WriteError(w, http.StatusBadRequest, "accent is required")
		return
	}
	if err := h.ctrl.ChangeAccent(r.Context(), req.Accent); err != nil {
		h.writeTrialError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

func (h *TrainerHandler) UpdateTranscript(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Transcript string `json:"transcript"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	h.ctrl.UpdateTranscript(req.Transcript)
	w.WriteHeader(http.StatusNoContent)
}

// Submit scores the stored transcript against the current prompt.
func (h *TrainerHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.SubmitTranscript(r.Context()); err != nil {
		h.writeTrialError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// Audio serves the currently loaded synthesis result as a WAV file.
func (h *TrainerHandler) Audio(w http.ResponseWriter, r *http.Request) {
	wav, ok := h.ctrl.AudioWAV()
	if !ok {
		WriteError(w, http.StatusNotFound, "no audio loaded")
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(wav)
}

func (h *TrainerHandler) Play(w http.ResponseWriter, r *http.Request) {
	h.ctrl.Play()
	WriteJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

func (h *TrainerHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.ctrl.Pause()
	WriteJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

func (h *TrainerHandler) Replay(w http.ResponseWriter, r *http.Request) {
	h.ctrl.Replay()
	WriteJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

func (h *TrainerHandler) Seek(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Position float64 `json:"position"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Position < 0 {
		WriteError(w, http.StatusBadRequest, "position must be >= 0")
		return
	}
	h.ctrl.Seek(req.Position)
	WriteJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

func (h *TrainerHandler) Speed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rate float64 `json:"rate"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Rate < 0.25 || req.Rate > 4 {
		WriteError(w, http.StatusBadRequest, "rate must be between 0.25 and 4")
		return
	}
	h.ctrl.SetSpeed(req.Rate)
	WriteJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// writeTrialError maps controller errors to HTTP status codes. Gateway step
// failures come back as 502 with the failed step in the detail field.
func (h *TrainerHandler) writeTrialError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, trainer.ErrUnknownAccent):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, trainer.ErrTrialNotReady):
		WriteError(w, http.StatusConflict, err.Error())
	case gateway.StepOf(err) != "":
		WriteErrorDetail(w, http.StatusBadGateway, err.Error(), gateway.StepOf(err))
	default:
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
