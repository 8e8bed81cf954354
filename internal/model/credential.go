package model

import "time"

type CredentialStatus string

const (
	CredentialStatusValid         = CredentialStatus("valid")
	CredentialStatusInvalid       = CredentialStatus("invalid")
	CredentialStatusChecking      = CredentialStatus("checking")
	CredentialStatusNotConfigured = CredentialStatus("not-configured")
)

type CredentialReport struct {
	Status    CredentialStatus
	Message   string
	CheckedAt time.Time
}
