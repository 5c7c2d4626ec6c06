package errors

import "net/http"

var ErrTaskExists = &Exception{
	Message:    "task already exists",
	StatusCode: http.StatusConflict,
}
