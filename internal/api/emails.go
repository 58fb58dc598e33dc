package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/shutterhouse/leadmail/internal/notify"
	"github.com/shutterhouse/leadmail/pkg/email"
	"github.com/shutterhouse/leadmail/pkg/logger"
)

// Attachments arrive base64 encoded, so the limit is well above the raw size.
const maxEmailBody = 20 << 20

// Sender is satisfied by *notify.Notifier.
type Sender interface {
	Send(ctx context.Context, env email.Envelope) notify.SendResult
}

type sendEmailRequest struct {
	To          []string           `json:"to"`
	Subject     string             `json:"subject"`
	HTML        string             `json:"html"`
	From        string             `json:"from"`
	ReplyTo     string             `json:"replyTo"`
	Cc          []string           `json:"cc"`
	Bcc         []string           `json:"bcc"`
	Attachments []email.Attachment `json:"attachments"`
}

func (req sendEmailRequest) envelope() email.Envelope {
	return email.Envelope{
		To:          req.To,
		Subject:     req.Subject,
		HTML:        req.HTML,
		From:        req.From,
		ReplyTo:     req.ReplyTo,
		Cc:          req.Cc,
		Bcc:         req.Bcc,
		Attachments: req.Attachments,
	}
}

type sendEmailResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
}

// sendEmail is the generic templated-send entry point.
// 422 means the envelope was rejected before any transport was involved;
// 502 means the transport refused or failed.
func (h *handlers) sendEmail(w http.ResponseWriter, r *http.Request) {
	var req sendEmailRequest
	if err := decodeJSON(w, r, maxEmailBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	env := req.envelope()
	if err := env.Validate(); err != nil {
		if errors.Is(err, email.ErrInvalidEnvelope) {
			writeJSON(w, http.StatusUnprocessableEntity, Envelope{Error: &ErrorDetail{
				Code:    CodeValidation,
				Message: err.Error(),
			}})
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	res := h.sender.Send(r.Context(), env)
	if !res.Success {
		h.logger.WarnContext(r.Context(), "email send failed", logger.Recipients(len(env.To)))
		writeError(w, http.StatusBadGateway, CodeSendFailed, res.Error)
		return
	}
	writeData(w, http.StatusOK, sendEmailResponse{Success: true, MessageID: res.MessageID})
}
