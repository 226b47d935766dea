package domain

import (
	"errors"
	"time"
)

var ErrUnauthorized = errors.New("unauthorized")

// APIKey identifies an operator. TenantID owns every graph created with it.
type APIKey struct {
	TokenHash string
	TenantID  string
	Name      string
	Active    bool
	CreatedAt time.Time
}
