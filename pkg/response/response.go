package response

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope for every JSON body the service writes.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// ErrorDetail is the machine-readable part of a failed booking operation.
type ErrorDetail struct {
	Reason string `json:"reason"`
}

func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	JSON(w, statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Error(w http.ResponseWriter, statusCode int, message string, err interface{}) {
	if message == "" {
		message = http.StatusText(statusCode)
	}
	JSON(w, statusCode, Response{
		Success: false,
		Message: message,
		Error:   err,
	})
}

// Failure writes an error envelope carrying a failure reason clients can branch on.
func Failure(w http.ResponseWriter, statusCode int, message string, reason string) {
	var detail interface{}
	if reason != "" {
		detail = ErrorDetail{Reason: reason}
	}
	Error(w, statusCode, message, detail)
}

// ValidationError carries field -> message pairs, and a "validation" reason so
// clients can treat it like any other failed booking operation.
func ValidationError(w http.ResponseWriter, fields interface{}) {
	JSON(w, http.StatusBadRequest, Response{
		Success: false,
		Message: "Validation failed",
		Error: struct {
			Reason string      `json:"reason"`
			Fields interface{} `json:"fields,omitempty"`
		}{Reason: "validation", Fields: fields},
	})
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message, nil)
}

func Forbidden(w http.ResponseWriter, message string) {
	Error(w, http.StatusForbidden, message, nil)
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message, nil)
}

func TooManyRequests(w http.ResponseWriter, message string) {
	Error(w, http.StatusTooManyRequests, message, nil)
}

func InternalServerError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, message, nil)
}
