package middleware

import (
	"encoding/json"
	"net/http"
)

// internalErrorBody is the fixed 500 payload. Raw error text never leaves the process.
const internalErrorBody = `{"msg":"Internal server error","error":"INTERNAL_ERROR"}`

// writeMessage writes a {"msg": ...} JSON body.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"msg": msg})
}

// WriteInternalError writes the generic 500 response.
func WriteInternalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(internalErrorBody))
}
