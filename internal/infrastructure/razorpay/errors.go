package razorpay

import (
	"encoding/json"
	"net/http"

	"github.com/DanielPopoola/creski-storefront/internal/application"
)

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func parseError(status int, body []byte) *application.GatewayError {
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Error.Code == "" {
		return &application.GatewayError{
			Code:        defaultCode(status),
			Description: http.StatusText(status),
			StatusCode:  status,
		}
	}
	return &application.GatewayError{
		Code:        resp.Error.Code,
		Description: resp.Error.Description,
		StatusCode:  status,
	}
}

func defaultCode(status int) string {
	if status >= 500 {
		return "SERVER_ERROR"
	}
	return "BAD_REQUEST_ERROR"
}
