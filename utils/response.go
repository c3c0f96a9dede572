package utils

import (
	"encoding/json"
	"net/http"

	"vinreport-web/models"
)

func SendErrorResponse(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.APIResponse{
		Status:  "error",
		Message: message,
	})
}

func SendSuccessResponse(w http.ResponseWriter, response models.APIResponse) {
	writeJSON(w, http.StatusOK, response)
}

// writeJSON encodes before touching the status so an unencodable payload
// becomes a 500 instead of a 200 with an empty body.
func writeJSON(w http.ResponseWriter, status int, response models.APIResponse) {
	body, err := json.Marshal(response)
	if err != nil {
		http.Error(w, `{"status":"error","message":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}
