package platform

import (
	"fmt"
	"strings"
)

// DescriptionInput carries the facts rendered into the free-text
// justification block submitted alongside the form fields.
type DescriptionInput struct {
	RequesterName         string
	ContactEmail          string
	DeceasedName          string
	DateOfDeath           string
	ProfileURL            string
	Relationship          Relationship
	RequestType           RequestType
	AdditionalInfo        string
	HasLegalAuthorization bool
}

// BuildDescription renders the canonical human-readable justification block
// embedding all submitted facts plus a note on which proof of authorization
// is attached.
func BuildDescription(in DescriptionInput) string {
	action := "removal of the account"
	if in.RequestType == RequestMemorialization {
		action = "memorialization of the account"
	}

	relation := "an immediate family member"
	if in.Relationship == RelAuthorizedEntity {
		relation = "a legally authorized representative"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I am requesting %s belonging to %s, who is deceased.\n\n", action, in.DeceasedName)
	fmt.Fprintf(&b, "Requester: %s (%s), acting as %s of the deceased.\n", in.RequesterName, in.ContactEmail, relation)
	if in.ProfileURL != "" {
		fmt.Fprintf(&b, "Account: %s\n", in.ProfileURL)
	}
	if in.DateOfDeath != "" {
		fmt.Fprintf(&b, "Date of death: %s\n", in.DateOfDeath)
	}
	b.WriteString("\nA copy of the death certificate is attached as proof of death.")
	if in.HasLegalAuthorization {
		b.WriteString(" Documentation of legal authority to act on behalf of the estate is also attached.")
	}
	if info := strings.TrimSpace(in.AdditionalInfo); info != "" {
		fmt.Fprintf(&b, "\n\nAdditional context: %s", info)
	}
	return b.String()
}
