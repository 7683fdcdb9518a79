package handlers

import (
	"encoding/json"
	"net/http"

	"bioguard/internal/transport/http/dto"
)

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	Write(w, status, dto.APIError{Code: code, Message: message})
}
