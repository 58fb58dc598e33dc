package api

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/shutterhouse/leadmail/internal/lead"
	"github.com/shutterhouse/leadmail/pkg/logger"
)

const maxLeadBody = 64 << 10

type createLeadRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	EventType string `json:"eventType"`
	EventDate string `json:"eventDate"`
	Package   string `json:"packageName"`
	Message   string `json:"message"`
}

func (req createLeadRequest) validate() ValidationError {
	verr := ValidationError{}
	if strings.TrimSpace(req.FirstName) == "" {
		verr.Add("firstName", "is required")
	}
	switch email := strings.TrimSpace(req.Email); {
	case email == "":
		verr.Add("email", "is required")
	default:
		if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
			verr.Add("email", "must be a valid email address")
		}
	}
	return verr
}

func (req createLeadRequest) lead() lead.Lead {
	return lead.Lead{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		EventType: strings.TrimSpace(req.EventType),
		EventDate: strings.TrimSpace(req.EventDate),
		Package:   strings.TrimSpace(req.Package),
		Message:   strings.TrimSpace(req.Message),
	}
}

type createLeadResponse struct {
	ID string `json:"id"`
}

// createLead stores a contact-form submission. Notification happens
// asynchronously when the trigger sees the new document.
func (h *handlers) createLead(w http.ResponseWriter, r *http.Request) {
	var req createLeadRequest
	if err := decodeJSON(w, r, maxLeadBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if verr := req.validate(); !verr.IsEmpty() {
		writeValidation(w, verr)
		return
	}

	l := req.lead()
	if err := h.leads.Create(r.Context(), &l); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to store lead", logger.Error(err))
		status, code := http.StatusInternalServerError, CodeInternal
		if errors.Is(err, lead.ErrDuplicate) {
			status, code = http.StatusConflict, "conflict"
		}
		writeError(w, status, code, "lead could not be stored")
		return
	}

	h.logger.InfoContext(r.Context(), "lead stored", logger.LeadID(l.ID))
	writeData(w, http.StatusCreated, createLeadResponse{ID: l.ID})
}
