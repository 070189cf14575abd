package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Brownie44l1/classify-api/internal/errs"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, kind errs.Kind, msg string) {
	writeJSON(w, status, ErrorResponse{Error: string(kind), Message: msg})
}
