package submit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nikkiricks/forgotten/internal/platform"
)

func TestRequestValidate(t *testing.T) {
	valid := func() *Request {
		return validRequest(PlatformSelection{Platform: "linkedin", ProfileURL: "https://www.linkedin.com/in/sam"})
	}

	tests := []struct {
		name    string
		mutate  func(*Request)
		wantErr string
	}{
		{"valid", func(r *Request) {}, ""},
		{"no selections", func(r *Request) { r.Selections = nil }, "at least one platform"},
		{"missing first name", func(r *Request) { r.RequesterFirstName = "" }, "requester name"},
		{"missing email", func(r *Request) { r.ContactEmail = "" }, "contact email"},
		{"missing deceased name", func(r *Request) { r.DeceasedName = "" }, "deceased name"},
		{"missing signature", func(r *Request) { r.Signature = "" }, "signature"},
		{"missing certificate", func(r *Request) { r.DeathCertificate = Attachment{} }, "death certificate"},
		{"bad relationship", func(r *Request) { r.Relationship = "friend" }, "relationship"},
		{"unknown platform", func(r *Request) { r.Selections[0].Platform = "myspace" }, "unsupported platform"},
		{"bad request type", func(r *Request) { r.Selections[0].RequestType = "archive" }, "request type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			err := req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestRequesterName(t *testing.T) {
	req := &Request{RequesterFirstName: "Ada", RequesterLastName: "Example"}
	assert.Equal(t, "Ada Example", req.RequesterName())
}

func TestValidateAcceptsAuthorizedEntity(t *testing.T) {
	req := validRequest(PlatformSelection{Platform: "facebook", ProfileURL: "https://www.facebook.com/sam"})
	req.Relationship = platform.RelAuthorizedEntity
	assert.NoError(t, req.Validate())
}
