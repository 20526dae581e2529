package errors

import (
	"net/http"
)

func BadRequest() ErrorEnricher { return WithCode(http.StatusBadRequest) }
func Forbidden() ErrorEnricher  { return WithCode(http.StatusForbidden) }
func NotFound() ErrorEnricher   { return WithCode(http.StatusNotFound) }
func Conflict() ErrorEnricher   { return WithCode(http.StatusConflict) }
func Gone() ErrorEnricher       { return WithCode(http.StatusGone) }
