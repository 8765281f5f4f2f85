// Package response writes the JSON envelope every API route answers with:
// {"success": bool, "message": string, ...payload}.
package response

import (
	"encoding/json"
	"net/http"
)

// Envelope is the common response body. Optional payload fields are omitted
// when empty so each route only carries what it returns.
type Envelope struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message,omitempty"`
	AccessToken string      `json:"accessToken,omitempty"`
	Image       interface{} `json:"image,omitempty"`
	Data        interface{} `json:"data,omitempty"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a success envelope carrying only a message.
func OK(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: true, Message: message})
}

// Fail writes a failure envelope.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: false, Message: message})
}
