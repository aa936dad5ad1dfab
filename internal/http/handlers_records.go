package http

import (
	"errors"
	"net/http"
	"time"

	"wealth/internal/auth"
	"wealth/internal/core"
	"wealth/internal/log"
	"wealth/internal/services"
)

// recordView is the JSON representation of a stored record.
type recordView struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Amount       float64   `json:"amount"`
	InterestRate *float64  `json:"interestRate,omitempty"`
	DateAdded    time.Time `json:"dateAdded"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type recordRequest struct {
	Description  *string `json:"description"`
	Category     *string `json:"category"`
	Amount       Amount  `json:"amount"`
	InterestRate Amount  `json:"interestRate"`
}

func toRecordView(r core.Record) recordView {
	v := recordView{
		ID:          r.ID,
		UserID:      r.OwnerID,
		Description: r.Description,
		Category:    r.Category,
		Amount:      r.Amount,
		DateAdded:   r.DateAdded,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.Kind == core.KindLiability {
		rate := r.InterestRate
		v.InterestRate = &rate
	}
	return v
}

// recordHandlers serves the CRUD routes of one record kind.
type recordHandlers struct {
	kind    core.RecordKind
	records *services.RecordService
}

func (h recordHandlers) list(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.UserIDFromContext(r.Context())
	recs, err := h.records.List(r.Context(), h.kind, owner)
	if err != nil {
		h.serverError(w, r, log.OpList, err)
		return
	}
	out := make([]recordView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toRecordView(rec))
	}
	NewJSONResponse().Body(out).Write(w)
}

func (h recordHandlers) get(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.UserIDFromContext(r.Context())
	rec, err := h.records.Get(r.Context(), h.kind, r.PathValue("id"), owner)
	if err != nil {
		h.writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(toRecordView(rec)).Write(w)
}

func (h recordHandlers) create(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.UserIDFromContext(r.Context())
	var req recordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.decodeError(w, err)
		return
	}
	if !req.Amount.Set {
		UnprocessableEntityError("Amount is required", core.ErrInvalidAmount).Write(w)
		return
	}

	in := services.RecordInput{
		Amount:       req.Amount.Value,
		InterestRate: req.InterestRate.ptr(),
	}
	if req.Description != nil {
		in.Description = sanitizeInput(*req.Description)
	}
	if req.Category != nil {
		in.Category = sanitizeInput(*req.Category)
	}

	rec, err := h.records.Create(r.Context(), h.kind, owner, in)
	if err != nil {
		h.writeError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(toRecordView(rec)).Write(w)
}

func (h recordHandlers) update(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.UserIDFromContext(r.Context())
	var req recordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.decodeError(w, err)
		return
	}

	rec, err := h.records.Update(r.Context(), h.kind, r.PathValue("id"), owner, services.RecordPatch{
		Description:  optionalString(req.Description),
		Category:     optionalString(req.Category),
		Amount:       req.Amount.ptr(),
		InterestRate: req.InterestRate.ptr(),
	})
	if err != nil {
		h.writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(toRecordView(rec)).Write(w)
}

func (h recordHandlers) remove(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.UserIDFromContext(r.Context())
	if err := h.records.Delete(r.Context(), h.kind, r.PathValue("id"), owner); err != nil {
		h.writeError(w, r, log.OpDelete, err)
		return
	}
	MessageResponse(http.StatusOK, h.kind.Title()+" removed").Write(w)
}

func (h recordHandlers) decodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, core.ErrInvalidAmount) {
		UnprocessableEntityError("Invalid amount", err).Write(w)
		return
	}
	BadRequestError("Invalid request body", err).Write(w)
}

func (h recordHandlers) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		MessageResponse(http.StatusNotFound, h.kind.Title()+" not found").Write(w)
	case services.IsValidation(err):
		UnprocessableEntityError("Invalid "+h.kind.String(), err).Write(w)
	default:
		h.serverError(w, r, op, err)
	}
}

func (h recordHandlers) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(), "Record operation failed", err, op,
		log.NewFields().WithRecord(h.kind.String(), r.PathValue("id"), "", 0))
	InternalServerError("Server error", err).Write(w)
}
