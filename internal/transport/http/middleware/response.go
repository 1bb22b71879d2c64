package middleware

import (
	"encoding/json"
	"net/http"
)

type failureBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// writeFailure writes the same {success:false,error} body the auth handlers use.
func writeFailure(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(failureBody{Error: msg})
}
