package errors

import "net/http"

var ErrNotSignedIn = &Exception{
	Message:    "no signed-in user",
	StatusCode: http.StatusUnauthorized,
}
