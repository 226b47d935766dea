package domain

import (
	"errors"
	"regexp"
	"time"
)

var (
	ErrInvalidGraphID  = errors.New("invalid graph id")
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidTenant   = errors.New("invalid tenant")
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
)

type GraphStatus string

const (
	GraphStatusDeployed       GraphStatus = "DEPLOYED"
	GraphStatusDeletionQueued GraphStatus = "DELETION_QUEUED"
)

var (
	graphIDPattern  = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._@+-]{1,128}$`)
	tenantPattern   = regexp.MustCompile(`^[a-zA-Z0-9._:/-]+$`)
)

type Graph struct {
	GraphID     string
	Description string
	Owner       string
	Status      GraphStatus
	Schema      GraphSchema
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Collaborator struct {
	GraphID   string
	Username  string
	AddedBy   string
	CreatedAt time.Time
}

func ValidateGraphID(id string) error {
	if !graphIDPattern.MatchString(id) {
		return ErrInvalidGraphID
	}
	return nil
}

func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

func ValidateTenant(tenant string) error {
	if tenant == "" || !tenantPattern.MatchString(tenant) {
		return ErrInvalidTenant
	}
	return nil
}
