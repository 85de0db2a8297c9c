package handler

import (
	"strings"

	id "kioskgate/pkg/domain"
	dErrors "kioskgate/pkg/domain-errors"
)

// RegisterRequest is the HTTP request body for POST /kiosks.
type RegisterRequest struct {
	Name       string `json:"name"`
	LocationID string `json:"location_id"`

	// Parsed values (populated by Validate)
	parsedLocationID id.LocationID
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}

	r.LocationID = strings.TrimSpace(r.LocationID)
	if r.LocationID == "" {
		return dErrors.New(dErrors.CodeValidation, "location_id is required")
	}
	locationID, err := id.ParseLocationID(r.LocationID)
	if err != nil {
		return err
	}
	r.parsedLocationID = locationID

	return nil
}

// ParsedLocationID returns the validated location ID.
func (r *RegisterRequest) ParsedLocationID() id.LocationID {
	return r.parsedLocationID
}

// TokenRequest is the HTTP request body for POST /kiosks/token.
type TokenRequest struct {
	KioskID string `json:"kiosk_id"`
	Secret  string `json:"secret"`

	// Parsed values (populated by Validate)
	parsedKioskID id.KioskID
}

// Validate validates and parses the request.
func (r *TokenRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.KioskID = strings.TrimSpace(r.KioskID)
	if r.KioskID == "" {
		return dErrors.New(dErrors.CodeValidation, "kiosk_id is required")
	}
	kioskID, err := id.ParseKioskID(r.KioskID)
	if err != nil {
		return err
	}
	r.parsedKioskID = kioskID

	if r.Secret == "" {
		return dErrors.New(dErrors.CodeValidation, "secret is required")
	}

	return nil
}

// ParsedKioskID returns the validated kiosk ID.
func (r *TokenRequest) ParsedKioskID() id.KioskID {
	return r.parsedKioskID
}
