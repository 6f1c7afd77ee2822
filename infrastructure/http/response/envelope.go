package response

import (
	"encoding/json"
	"net/http"

	"github.com/portinscan/portinscan/domain/apperror"
)

type Envelope struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, status bool, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	envelope := Envelope{
		Status:  status,
		Message: message,
		Data:    data,
	}

	json.NewEncoder(w).Encode(envelope)
}

func Success(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	WriteJSON(w, statusCode, true, message, data)
}

func Error(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, false, message, nil)
}

// AppError writes err in its public form with the status its code maps to.
func AppError(w http.ResponseWriter, err error, traceID string) {
	public := apperror.Public(err)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(apperror.HTTPStatus(public))
	json.NewEncoder(w).Encode(apperror.NewErrorResponse(public, traceID))
}
