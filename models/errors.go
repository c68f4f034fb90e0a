package models

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid password")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrForbidden          = errors.New("admin access required")
	ErrNoData             = errors.New("no data available")
	ErrSessionNotFound    = errors.New("session not found")
)
