package handler

import (
	"encoding/base64"
	"strings"

	"kioskgate/internal/verify"
	id "kioskgate/pkg/domain"
	dErrors "kioskgate/pkg/domain-errors"
)

// StartRequest is the HTTP request body for POST /sessions.
type StartRequest struct {
	LocationID string `json:"location_id"`
	Direction  string `json:"direction"`

	// Parsed values (populated by Validate)
	parsedLocationID id.LocationID
	parsedDirection  id.Direction
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *StartRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
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

	r.Direction = strings.TrimSpace(r.Direction)
	if r.Direction == "" {
		return dErrors.New(dErrors.CodeValidation, "direction is required")
	}
	direction, err := id.ParseDirection(r.Direction)
	if err != nil {
		return err
	}
	r.parsedDirection = direction

	return nil
}

// ParsedLocationID returns the validated location ID.
func (r *StartRequest) ParsedLocationID() id.LocationID {
	return r.parsedLocationID
}

// ParsedDirection returns the validated direction.
func (r *StartRequest) ParsedDirection() id.Direction {
	return r.parsedDirection
}

// SubmitRequest is the HTTP request body for POST /sessions/{id}/submit.
// Exactly one credential field is expected, matching the method.
type SubmitRequest struct {
	Method  string `json:"method"`
	QRToken string `json:"qr_token,omitempty"`
	PIN     string `json:"pin,omitempty"`
	// Image is the base64-encoded captured frame for photo verification.
	Image string `json:"image,omitempty"`

	// Parsed values (populated by Validate)
	parsedMethod     id.MethodKind
	parsedCredential verify.Credential
}

// Validate validates and parses the request.
func (r *SubmitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Method = strings.TrimSpace(r.Method)
	if r.Method == "" {
		return dErrors.New(dErrors.CodeValidation, "method is required")
	}
	method, err := id.ParseMethodKind(r.Method)
	if err != nil {
		return err
	}
	r.parsedMethod = method

	switch method {
	case id.MethodQR:
		r.QRToken = strings.TrimSpace(r.QRToken)
		if r.QRToken == "" {
			return dErrors.New(dErrors.CodeValidation, "qr_token is required for method qr")
		}
		r.parsedCredential = verify.Credential{Token: r.QRToken}
	case id.MethodPIN:
		r.PIN = strings.TrimSpace(r.PIN)
		if r.PIN == "" {
			return dErrors.New(dErrors.CodeValidation, "pin is required for method pin")
		}
		r.parsedCredential = verify.Credential{PIN: r.PIN}
	case id.MethodPhoto:
		if r.Image == "" {
			return dErrors.New(dErrors.CodeValidation, "image is required for method photo")
		}
		image, err := base64.StdEncoding.DecodeString(r.Image)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "image must be valid base64")
		}
		if len(image) == 0 {
			return dErrors.New(dErrors.CodeValidation, "image must not be empty")
		}
		r.parsedCredential = verify.Credential{Image: image}
	}

	return nil
}

// ParsedMethod returns the validated method kind.
func (r *SubmitRequest) ParsedMethod() id.MethodKind {
	return r.parsedMethod
}

// ParsedCredential returns the credential payload for the method.
func (r *SubmitRequest) ParsedCredential() verify.Credential {
	return r.parsedCredential
}
