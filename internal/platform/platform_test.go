package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForPlatform(t *testing.T) {
	for _, name := range []string{"linkedin", "instagram", "facebook", "youtube"} {
		t.Run(name, func(t *testing.T) {
			a, ok := ForPlatform(name)
			require.True(t, ok)
			assert.Equal(t, name, a.Name)
			assert.NotEmpty(t, a.RemovalURL)
			assert.NotEmpty(t, a.SubmitControls)
			assert.NotEmpty(t, a.Fields)
			assert.Positive(t, a.EstimatedDays)
		})
	}

	_, ok := ForPlatform("myspace")
	assert.False(t, ok)

	a, ok := ForPlatform("  LinkedIn ")
	assert.True(t, ok, "lookup is case- and whitespace-insensitive")
	assert.Equal(t, "linkedin", a.Name)
}

func TestNames(t *testing.T) {
	assert.ElementsMatch(t, []string{"linkedin", "instagram", "facebook", "youtube"}, Names())
}

func TestFormURLFallback(t *testing.T) {
	linkedin, _ := ForPlatform("linkedin")
	assert.False(t, linkedin.SupportsMemorialization)
	assert.Equal(t, linkedin.RemovalURL, linkedin.FormURL(RequestMemorialization),
		"platforms without a memorialization form fall back to the removal form")

	instagram, _ := ForPlatform("instagram")
	assert.True(t, instagram.SupportsMemorialization)
	assert.NotEqual(t, instagram.FormURL(RequestRemoval), instagram.FormURL(RequestMemorialization))
}

func TestMemorializationAdaptersHaveStrategy(t *testing.T) {
	for _, name := range []string{"instagram", "facebook"} {
		t.Run(name, func(t *testing.T) {
			a, _ := ForPlatform(name)
			require.True(t, a.SupportsMemorialization)
			// At least one of the three request-type strategies must exist.
			hasStrategy := len(a.RequestTypeSelects) > 0 ||
				len(a.RequestTypeRadios[RequestMemorialization]) > 0 ||
				a.RequestTypeTexts[RequestMemorialization] != ""
			assert.True(t, hasStrategy)
		})
	}
}

func TestRelationshipValuesCoverBothClassifications(t *testing.T) {
	for _, name := range Names() {
		a, _ := ForPlatform(name)
		if len(a.RelationshipSelects) == 0 {
			continue
		}
		assert.NotEmpty(t, a.RelationshipValues[RelImmediateFamily], "%s immediate family values", name)
		assert.NotEmpty(t, a.RelationshipValues[RelAuthorizedEntity], "%s authorized entity values", name)
	}
}

func TestBuildDescription(t *testing.T) {
	in := DescriptionInput{
		RequesterName:         "Ada Example",
		ContactEmail:          "ada@example.org",
		DeceasedName:          "Sam Example",
		DateOfDeath:           "2025-11-02",
		ProfileURL:            "https://www.linkedin.com/in/sam-example",
		Relationship:          RelImmediateFamily,
		RequestType:           RequestRemoval,
		AdditionalInfo:        "Obituary available on request.",
		HasLegalAuthorization: false,
	}

	desc := BuildDescription(in)
	assert.Contains(t, desc, "removal of the account")
	assert.Contains(t, desc, "Sam Example")
	assert.Contains(t, desc, "Ada Example (ada@example.org)")
	assert.Contains(t, desc, "an immediate family member")
	assert.Contains(t, desc, "https://www.linkedin.com/in/sam-example")
	assert.Contains(t, desc, "Date of death: 2025-11-02")
	assert.Contains(t, desc, "death certificate is attached")
	assert.NotContains(t, desc, "legal authority")
	assert.Contains(t, desc, "Obituary available on request.")
}

func TestBuildDescriptionMemorializationWithLegalDoc(t *testing.T) {
	desc := BuildDescription(DescriptionInput{
		RequesterName:         "Ada Example",
		ContactEmail:          "ada@example.org",
		DeceasedName:          "Sam Example",
		Relationship:          RelAuthorizedEntity,
		RequestType:           RequestMemorialization,
		HasLegalAuthorization: true,
	})
	assert.Contains(t, desc, "memorialization of the account")
	assert.Contains(t, desc, "a legally authorized representative")
	assert.Contains(t, desc, "legal authority to act on behalf of the estate")
	assert.NotContains(t, desc, "Account:", "no profile URL line when the URL is unknown")
}
