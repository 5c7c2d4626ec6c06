package errors

import "net/http"

var ErrNoBackup = &Exception{
	Message:    "no backup has been created yet",
	StatusCode: http.StatusNotFound,
}
