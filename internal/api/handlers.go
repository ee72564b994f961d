package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/callerid/internal/apperr"
	"github.com/starford/callerid/internal/checksum"
	"github.com/starford/callerid/internal/contactservice"
	"github.com/starford/callerid/internal/phone"
)

// Handler holds contact route handlers.
type Handler struct {
	svc *contactservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *contactservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListContacts handles GET /api/contacts.
//
// With a "number" query parameter it returns the single matching contact
// instead, the target notifications link to.
//
//	@Summary		List contacts or resolve one by number
//	@Tags			contacts
//	@Produce		json
//	@Param			number	query		string	false	"Phone number in any format"
//	@Success		200		{object}	ContactListResponse
//	@Success		304
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contacts [get]
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	if number := r.URL.Query().Get("number"); number != "" {
		h.getByNumber(w, r, number)
		return
	}

	items, err := h.svc.List(r.Context())
	if err != nil {
		slog.Error("list contacts failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	resp := ContactListResponse{Contacts: items, Total: len(items)}

	if tag, err := checksum.ETag(resp); err == nil {
		w.Header().Set("ETag", tag)
		if r.Header.Get("If-None-Match") == tag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getByNumber(w http.ResponseWriter, r *http.Request, number string) {
	c, err := h.svc.Lookup(r.Context(), number)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get contact failed", slog.String("number", number), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateContact handles POST /api/contacts.
//
//	@Summary		Add a contact
//	@Tags			contacts
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateContactRequest	true	"Contact to add"
//	@Success		201		{object}	contact.Contact
//	@Failure		400		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contacts [post]
func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	var req CreateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	c, err := h.svc.Add(r.Context(), req.Name, req.Phone, req.Notes)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		} else {
			slog.Error("add contact failed", slog.String("name", req.Name), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("failed to add contact"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// LookupNumber handles GET /api/contacts/lookup.
//
//	@Summary		Resolve the display name for a number
//	@Tags			contacts
//	@Produce		json
//	@Param			number	query		string	true	"Phone number in any format"
//	@Success		200		{object}	LookupResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contacts/lookup [get]
func (h *Handler) LookupNumber(w http.ResponseWriter, r *http.Request) {
	number := r.URL.Query().Get("number")
	if number == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("number is required"))
		return
	}
	resp := LookupResponse{Number: number, Key: phone.Normalize(number), DisplayName: number}

	c, err := h.svc.LookupKey(r.Context(), resp.Key)
	switch {
	case err == nil:
		resp.Contact = c
		resp.DisplayName = c.Name
	case !errors.Is(err, apperr.ErrNotFound):
		slog.Error("lookup failed", slog.String("number", number), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
