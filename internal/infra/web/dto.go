package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"notification-hub/internal/domain/model"
	"notification-hub/internal/domain/ports/repository"
)

type destinationRequest struct {
	Platform    string `json:"platform"`
	Destination string `json:"destination"`
}

type sendRequest struct {
	Content      string               `json:"content"`
	Destinations []destinationRequest `json:"destinations"`
}

type updateLimitRequest struct {
	DailyLimit int `json:"daily_limit"`
}

type userResponse struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	DailyLimit int    `json:"daily_limit"`
	IsAdmin    bool   `json:"is_admin"`
}

type deliveryResponse struct {
	ID               string         `json:"id"`
	Platform         string         `json:"platform"`
	Destination      string         `json:"destination"`
	Status           string         `json:"status"`
	ProviderResponse map[string]any `json:"provider_response,omitempty"`
	ErrorMessage     string         `json:"error_message,omitempty"`
	SentAt           *time.Time     `json:"sent_at,omitempty"`
}

type messageResponse struct {
	ID         string             `json:"id"`
	Content    string             `json:"content"`
	CreatedAt  time.Time          `json:"created_at"`
	Deliveries []deliveryResponse `json:"deliveries"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toMessageResponse(m *model.Message) messageResponse {
	resp := messageResponse{
		ID:         m.ID,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
		Deliveries: make([]deliveryResponse, 0, len(m.Deliveries)),
	}
	for _, d := range m.Deliveries {
		dr := deliveryResponse{
			ID:               d.ID,
			Platform:         string(d.Platform),
			Destination:      d.Destination,
			Status:           string(d.Status),
			ProviderResponse: d.ProviderResponse,
			ErrorMessage:     d.ErrorMessage,
		}
		if !d.SentAt.IsZero() {
			t := d.SentAt
			dr.SentAt = &t
		}
		resp.Deliveries = append(resp.Deliveries, dr)
	}
	return resp
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, DailyLimit: u.DailyLimit, IsAdmin: u.IsAdmin}
}

func toMessageResponses(msgs []*model.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return out
}

// filterFromQuery maps status/platform/from/to/limit/offset query params
// onto a filter. Dates are RFC 3339.
func filterFromQuery(r *http.Request) (repository.MessageFilter, error) {
	var f repository.MessageFilter
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		st, err := model.ParseDeliveryStatus(v)
		if err != nil {
			return f, fmt.Errorf("unknown status %q", v)
		}
		f.Status = st
	}
	if v := q.Get("platform"); v != "" {
		p, err := model.ParsePlatform(v)
		if err != nil {
			return f, fmt.Errorf("unknown platform %q", v)
		}
		f.Platform = p
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, fmt.Errorf("invalid from date: %v", err)
		}
		f.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, fmt.Errorf("invalid to date: %v", err)
		}
		f.To = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid limit %q", v)
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid offset %q", v)
		}
		f.Offset = n
	}
	return f, nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
