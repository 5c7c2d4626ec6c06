package errors

import "net/http"

var ErrDeleteRefusedOffline = &Exception{
	Message:    "cannot delete while offline for a signed-in user",
	StatusCode: http.StatusConflict,
}
