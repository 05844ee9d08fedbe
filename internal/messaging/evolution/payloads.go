package evolution

import (
	"encoding/json"
	"errors"
	"strings"
)

// SendTextRequest is a single outbound text message.
type SendTextRequest struct {
	Number string
	Text   string
}

func (r SendTextRequest) validate() error {
	if strings.TrimSpace(r.Number) == "" {
		return errors.New("evolution: destination number is required")
	}
	if strings.TrimSpace(r.Text) == "" {
		return errors.New("evolution: message text is required")
	}
	return nil
}

// SendTextResponse reports a gateway-accepted send.
type SendTextResponse struct {
	MessageID string
	Status    string
}

type sendTextPayload struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

type sendTextResult struct {
	Key struct {
		ID string `json:"id"`
	} `json:"key"`
	Status string          `json:"status"`
	Error  json.RawMessage `json:"error,omitempty"`
}

// failed reports an explicit failure indicator in an otherwise 2xx body.
func (r sendTextResult) failed() bool {
	if len(r.Error) > 0 && string(r.Error) != "null" && string(r.Error) != `""` {
		return true
	}
	return strings.EqualFold(r.Status, "error")
}

func (r sendTextResult) errorText() string {
	if len(r.Error) > 0 {
		return strings.Trim(string(r.Error), `"`)
	}
	return "gateway reported failure"
}
