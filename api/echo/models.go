package echo

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the JSON success wrapper returned by every endpoint.
type Envelope struct {
	Code   int         `json:"code"`
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
}

func respond(c echo.Context, code int, data interface{}) error {
	return c.JSON(code, Envelope{Code: code, Status: "success", Data: data})
}

func respondOK(c echo.Context, data interface{}) error {
	return respond(c, http.StatusOK, data)
}

// Request bodies

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Vendor      bool   `json:"vendor"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resendVerificationRequest struct {
	Email string `json:"email"`
}

type businessRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	City        string `json:"city"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Website     string `json:"website"`
}

type discussionRequest struct {
	BusinessID string `json:"business_id"`
	ParentID   string `json:"parent_id"`
	Title      string `json:"title"`
	Body       string `json:"body"`
}

type discussionUpdateRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type verificationRequestBody struct {
	BusinessID string `json:"business_id"`
	Note       string `json:"note"`
}

type verificationDecision struct {
	Approve bool `json:"approve"`
}
