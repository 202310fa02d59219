// Package submit orchestrates deceased-account requests across the selected
// platforms, one isolated browser session per platform attempt.
package submit

import (
	"errors"
	"fmt"

	"github.com/nikkiricks/forgotten/internal/platform"
)

// Processing methods reported on an Outcome.
const (
	MethodAutomatedForm    = "automated_form"
	MethodAutomationFailed = "automation_failed"
)

// Attachment is an uploaded document held in memory for the lifetime of a
// single submission attempt. Never persisted.
type Attachment struct {
	Filename string
	MimeType string
	Data     []byte
}

// PlatformSelection names one target platform and how the request applies
// to it.
type PlatformSelection struct {
	Platform    string
	RequestType platform.RequestType
	ProfileURL  string
}

// Request is a fully-validated submission handed over by the intake boundary.
// Immutable after creation; consumed once by the orchestrator.
type Request struct {
	RequesterFirstName string
	RequesterLastName  string
	ContactEmail       string

	DeceasedName  string
	DeceasedEmail string
	DateOfDeath   string

	AdditionalInfo string
	Signature      string
	Relationship   platform.Relationship

	DeathCertificate   Attachment
	LegalAuthorization *Attachment

	Selections []PlatformSelection
}

// Outcome is the per-platform result. Exactly one is produced per selection.
type Outcome struct {
	Platform       string               `json:"platform"`
	Success        bool                 `json:"success"`
	ConfirmationID string               `json:"confirmationId"`
	Message        string               `json:"message"`
	Method         string               `json:"method"`
	EstimatedDays  int                  `json:"estimatedDays"`
	RequestType    platform.RequestType `json:"requestType"`
}

var errNoSelections = errors.New("at least one platform selection is required")

// Validate checks the intake invariants. Malformed requests are surfaced,
// never degraded to manual outcomes.
func (r *Request) Validate() error {
	if len(r.Selections) == 0 {
		return errNoSelections
	}
	if r.RequesterFirstName == "" || r.RequesterLastName == "" {
		return errors.New("requester name is required")
	}
	if r.ContactEmail == "" {
		return errors.New("contact email is required")
	}
	if r.DeceasedName == "" {
		return errors.New("deceased name is required")
	}
	if r.Signature == "" {
		return errors.New("digital signature is required")
	}
	if len(r.DeathCertificate.Data) == 0 || r.DeathCertificate.Filename == "" {
		return errors.New("death certificate attachment is required")
	}
	switch r.Relationship {
	case platform.RelImmediateFamily, platform.RelAuthorizedEntity:
	default:
		return fmt.Errorf("unknown relationship classification: %q", r.Relationship)
	}
	for _, sel := range r.Selections {
		if _, ok := platform.ForPlatform(sel.Platform); !ok {
			return fmt.Errorf("unsupported platform: %q", sel.Platform)
		}
		switch sel.RequestType {
		case "", platform.RequestRemoval, platform.RequestMemorialization:
		default:
			return fmt.Errorf("unknown request type for %s: %q", sel.Platform, sel.RequestType)
		}
	}
	return nil
}

// RequesterName returns the requester's full name.
func (r *Request) RequesterName() string {
	return r.RequesterFirstName + " " + r.RequesterLastName
}
