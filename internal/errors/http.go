package errors

import "net/http"

// WriteJSON writes e to w as {"error": {...}} with the given status.
func (e *Error) WriteJSON(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":` + e.FormatJSON() + "}\n"))
}
