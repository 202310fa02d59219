// Package platform holds the static per-platform configuration that maps a
// normalized removal/memorialization request onto one target platform's form:
// form URLs, ordered candidate locators per logical field, relationship value
// mappings, and confirmation matchers. No network or browser calls live here.
package platform

import "strings"

// RequestType selects between account removal and memorialization.
type RequestType string

const (
	RequestRemoval         RequestType = "removal"
	RequestMemorialization RequestType = "memorialization"
)

// Relationship classifies the requester's standing.
type Relationship string

const (
	RelImmediateFamily  Relationship = "immediate_family"
	RelAuthorizedEntity Relationship = "authorized_entity"
)

// Field names a logical form field. Each adapter maps it to an ordered list
// of candidate locators, tried until one resolves.
type Field string

const (
	FieldRequesterFirstName Field = "requester_first_name"
	FieldRequesterLastName  Field = "requester_last_name"
	FieldRequesterName      Field = "requester_name"
	FieldContactEmail       Field = "contact_email"
	FieldDeceasedName       Field = "deceased_name"
	FieldDeceasedEmail      Field = "deceased_email"
	FieldProfileURL         Field = "profile_url"
	FieldDateOfDeath        Field = "date_of_death"
	FieldDetails            Field = "details"
)

// Adapter is the pure configuration for one target platform.
type Adapter struct {
	Name                    string
	RemovalURL              string
	MemorializationURL      string
	EstimatedDays           int
	AcceptsLegalDoc         bool
	SupportsMemorialization bool

	// Ordered candidate locators per logical field.
	Fields map[Field][]string

	// Relationship classification -> candidate platform enum values, tried in order.
	RelationshipSelects []string
	RelationshipValues  map[Relationship][]string

	// Request-type selector strategy: select value, then radio click, then
	// text-based click, tried in that order.
	RequestTypeSelects []string
	RequestTypeValues  map[RequestType][]string
	RequestTypeRadios  map[RequestType][]string
	RequestTypeTexts   map[RequestType]string

	// File attachment locators. LegalDocInputs names a dedicated input for
	// the legal-authorization document where the form has one; when empty,
	// both documents share FileInputs and must be attached in one call.
	UploadTriggers []string
	FileInputs     []string
	LegalDocInputs []string

	// Submit controls and confirmation matchers.
	SubmitControls       []string
	ConfirmationBanners  []string
	ConfirmationPatterns []string
}

// FormURL returns the form URL for the given request type, falling back to
// the removal URL for platforms without a dedicated memorialization form.
func (a Adapter) FormURL(rt RequestType) string {
	if rt == RequestMemorialization && a.MemorializationURL != "" {
		return a.MemorializationURL
	}
	return a.RemovalURL
}

var registry = map[string]Adapter{}

func init() {
	for _, a := range []Adapter{LinkedIn(), Instagram(), Facebook(), YouTube()} {
		registry[a.Name] = a
	}
}

// ForPlatform resolves an adapter by platform identifier.
func ForPlatform(name string) (Adapter, bool) {
	a, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return a, ok
}

// Names lists the supported platform identifiers.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
