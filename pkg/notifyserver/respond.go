package notifyserver

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrymomot/notifykit/pkg/notifyapi"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData[T any](w http.ResponseWriter, status int, data T) {
	writeJSON(w, status, notifyapi.Envelope[T]{Success: true, Data: data})
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, notifyapi.Envelope[any]{Success: true})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, notifyapi.Envelope[any]{Success: false, Message: msg})
}
