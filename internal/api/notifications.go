package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shaharia-lab/notifier/internal/notification"
	"github.com/shaharia-lab/notifier/internal/service"
	"github.com/shaharia-lab/notifier/internal/transport"
)

// sendNotificationRequest is the body of POST /notifications.
type sendNotificationRequest struct {
	Subject           string                   `json:"subject" validate:"required"`
	Content           string                   `json:"content"`
	SubjectParameters map[string]string        `json:"subject_parameters"`
	ContentParameters map[string]string        `json:"content_parameters"`
	Domain            string                   `json:"domain"`
	Channels          []string                 `json:"channels" validate:"dive,required"`
	Recipients        []notification.Recipient `json:"recipients" validate:"required,min=1,dive"`
}

func (req sendNotificationRequest) notification() *notification.Notification {
	opts := []notification.Option{
		notification.WithSubjectParameters(req.SubjectParameters),
		notification.WithContentParameters(req.ContentParameters),
	}
	if req.Content != "" {
		opts = append(opts, notification.WithContent(req.Content))
	}
	if req.Domain != "" {
		opts = append(opts, notification.WithDomain(req.Domain))
	}
	return notification.New(req.Subject, req.Channels, opts...)
}

// deliveryFailure describes one message that could not be delivered.
type deliveryFailure struct {
	Channel   string `json:"channel"`
	Recipient string `json:"recipient"`
	Error     string `json:"error"`
}

// handleSendNotification dispatches one notification to the given recipients.
// Responds 202 when every message was accepted and 502 with the list of
// failures otherwise; "scheduled" records are written in both cases.
func (s *Server) handleSendNotification(w http.ResponseWriter, r *http.Request) {
	var req sendNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, service.NewValidationError(err).Error())
		return
	}

	err := s.notificationSvc.Send(r.Context(), req.notification(), req.Recipients...)
	if err != nil {
		s.logger.Warn("notification delivery failed", "subject", req.Subject, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"status":   "failed",
			"failures": deliveryFailures(err),
		})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":     "scheduled",
		"recipients": len(req.Recipients),
	})
}

// deliveryFailures flattens the joined error returned by the transport layer.
func deliveryFailures(err error) []deliveryFailure {
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	out := make([]deliveryFailure, 0, len(errs))
	for _, e := range errs {
		var de *transport.DeliveryError
		if errors.As(e, &de) {
			out = append(out, deliveryFailure{Channel: de.Channel, Recipient: de.Recipient, Error: de.Err.Error()})
			continue
		}
		out = append(out, deliveryFailure{Error: e.Error()})
	}
	return out
}
