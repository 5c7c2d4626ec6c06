package errors

import "net/http"

var ErrOffline = &Exception{
	Message:    "device is offline",
	StatusCode: http.StatusServiceUnavailable,
}
