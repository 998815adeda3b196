package apiclient

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/2beens/gymclient/internal/apperrors"
)

// Result is the canonical shape of every backend answer, whatever envelope
// the backend version used.
type Result struct {
	Status  int
	Data    json.RawMessage
	Message string
}

// HasData reports whether the backend sent a non-null payload.
func (r *Result) HasData() bool {
	if r == nil {
		return false
	}
	trimmed := bytes.TrimSpace(r.Data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Decode unmarshals the payload into out.
func (r *Result) Decode(out any) error {
	if !r.HasData() {
		return apperrors.New(apperrors.ErrRemote, "Respuesta vacía del servidor")
	}
	if err := json.Unmarshal(r.Data, out); err != nil {
		return &apperrors.Error{
			Kind:    apperrors.ErrRemote,
			Message: "Respuesta inválida del servidor",
			Status:  r.Status,
			Cause:   err,
		}
	}
	return nil
}

// envelopeKeys are the only keys an enveloped answer may carry.
var envelopeKeys = map[string]struct{}{
	"success":    {},
	"data":       {},
	"message":    {},
	"errors":     {},
	"statusCode": {},
}

// Normalize maps every known backend answer onto a Result:
//   - {success, data, message}: later API versions
//   - {data: ...}: envelope without the success flag
//   - anything else: bare payload of earlier versions
//
// Non-2xx statuses and {success: false} become *apperrors.Error values with
// the backend message when one was sent.
func Normalize(status int, body []byte) (*Result, error) {
	body = bytes.TrimSpace(body)

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, apperrors.FromStatus(status, extractMessage(body))
	}

	res := &Result{Status: status}
	if len(body) == 0 {
		return res, nil
	}

	if !json.Valid(body) {
		return nil, &apperrors.Error{
			Kind:    apperrors.ErrRemote,
			Message: "Respuesta inválida del servidor",
			Status:  status,
		}
	}

	obj, ok := asObject(body)
	if !ok || !isEnvelope(obj) {
		res.Data = body
		return res, nil
	}

	if rawMsg, found := obj["message"]; found {
		res.Message = decodeString(rawMsg)
	}

	if rawSuccess, found := obj["success"]; found {
		var success bool
		if err := json.Unmarshal(rawSuccess, &success); err == nil && !success {
			return nil, &apperrors.Error{
				Kind:    apperrors.ErrRemote,
				Message: res.Message,
				Status:  status,
			}
		}
	}

	res.Data = obj["data"]
	return res, nil
}

func isEnvelope(obj map[string]json.RawMessage) bool {
	_, hasSuccess := obj["success"]
	_, hasData := obj["data"]
	if !hasSuccess && !hasData {
		return false
	}
	for k := range obj {
		if _, known := envelopeKeys[k]; !known {
			return false
		}
	}
	return true
}

func asObject(body []byte) (map[string]json.RawMessage, bool) {
	if len(body) == 0 || body[0] != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// extractMessage pulls a human readable message out of an error body:
// {"message": ...}, {"title": ...} (ASP.NET problem details) or a bare string.
func extractMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if obj, ok := asObject(body); ok {
		for _, key := range []string{"message", "Message", "title"} {
			if raw, found := obj[key]; found {
				if msg := decodeString(raw); msg != "" {
					return msg
				}
			}
		}
		return ""
	}
	if body[0] == '"' {
		return decodeString(body)
	}
	return ""
}

func decodeString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
