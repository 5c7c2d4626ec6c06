package errors

import "net/http"

var ErrInvalidDate = &Exception{
	Message:    "date must be formatted as yyyy-MM-dd",
	StatusCode: http.StatusBadRequest,
}
