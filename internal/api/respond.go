// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

package api

import (
	"encoding/json"
	"net/http"
)

const internalErrorMessage = "internal server error"

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // client may disconnect
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
