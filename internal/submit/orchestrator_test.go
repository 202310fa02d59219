package submit

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikkiricks/forgotten/internal/automation"
	"github.com/nikkiricks/forgotten/internal/config"
	"github.com/nikkiricks/forgotten/internal/platform"
)

// fakeBrowser records the calls a platform attempt makes.
type fakeBrowser struct {
	navigateErr error
	submitErr   error
	confirmID   string

	navigatedTo    string
	filledValues   []string
	attachCalls    [][]string // filenames per AttachFiles call
	attachLocators [][]string // locator list per AttachFiles call
	closed         bool
}

func (f *fakeBrowser) Navigate(_ context.Context, url string) error {
	f.navigatedTo = url
	return f.navigateErr
}

func (f *fakeBrowser) FillField(_ []string, value string) bool {
	f.filledValues = append(f.filledValues, value)
	return true
}

func (f *fakeBrowser) SelectOption(_ []string, _ []string) bool { return true }
func (f *fakeBrowser) Click(_ []string) bool                    { return true }
func (f *fakeBrowser) ClickByVisibleText(_ string) bool         { return true }

func (f *fakeBrowser) AttachFiles(locators []string, _ []string, uploads []automation.Upload) error {
	names := make([]string, 0, len(uploads))
	for _, u := range uploads {
		names = append(names, u.Filename)
	}
	f.attachCalls = append(f.attachCalls, names)
	f.attachLocators = append(f.attachLocators, locators)
	return nil
}

func (f *fakeBrowser) Submit(_ []string) error { return f.submitErr }

func (f *fakeBrowser) ExtractConfirmation(_ string, _ []string, _ []string) string {
	return f.confirmID
}

func (f *fakeBrowser) Close() { f.closed = true }

func validRequest(selections ...PlatformSelection) *Request {
	return &Request{
		RequesterFirstName: "Ada",
		RequesterLastName:  "Example",
		ContactEmail:       "ada@example.org",
		DeceasedName:       "Sam Example",
		DateOfDeath:        "2025-11-02",
		Signature:          "Ada Example",
		Relationship:       platform.RelImmediateFamily,
		DeathCertificate:   Attachment{Filename: "cert.pdf", MimeType: "application/pdf", Data: []byte("%PDF-")},
		Selections:         selections,
	}
}

func TestSubmitOneOutcomePerSelection(t *testing.T) {
	browsers := map[string]*fakeBrowser{}
	orch := NewOrchestratorWithFactory(config.BrowserConfig{}, func(config.BrowserConfig) (Browser, error) {
		b := &fakeBrowser{confirmID: "CASE-12345"}
		browsers[string(rune('a'+len(browsers)))] = b
		return b, nil
	})

	req := validRequest(
		PlatformSelection{Platform: "linkedin", ProfileURL: "https://www.linkedin.com/in/sam"},
		PlatformSelection{Platform: "facebook", RequestType: platform.RequestMemorialization, ProfileURL: "https://www.facebook.com/sam"},
		PlatformSelection{Platform: "youtube", ProfileURL: "https://www.youtube.com/@sam"},
	)

	outcomes, err := orch.Submit(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	for _, o := range outcomes {
		assert.True(t, o.Success)
		assert.Equal(t, MethodAutomatedForm, o.Method)
		assert.Equal(t, "CASE-12345", o.ConfirmationID)
		assert.NotZero(t, o.EstimatedDays)
	}
	assert.Equal(t, platform.RequestMemorialization, outcomes[1].RequestType)

	for _, b := range browsers {
		assert.True(t, b.closed, "every session is closed")
		require.NotEmpty(t, b.attachCalls)
		assert.Contains(t, b.attachCalls[0], "cert.pdf")
	}
}

func TestAttachDocumentsSharedInputGetsBothFiles(t *testing.T) {
	var browser *fakeBrowser
	orch := NewOrchestratorWithFactory(config.BrowserConfig{}, func(config.BrowserConfig) (Browser, error) {
		browser = &fakeBrowser{confirmID: "CASE-9"}
		return browser, nil
	})

	// YouTube's form exposes a single generic file input.
	adapter, ok := platform.ForPlatform("youtube")
	require.True(t, ok)
	require.Empty(t, adapter.LegalDocInputs)

	req := validRequest(PlatformSelection{Platform: "youtube", ProfileURL: "https://www.youtube.com/@sam"})
	req.LegalAuthorization = &Attachment{Filename: "authorization.pdf", MimeType: "application/pdf", Data: []byte("%PDF-")}

	_, err := orch.Submit(context.Background(), req)
	require.NoError(t, err)

	// Both documents must travel in one call: a second call on the same
	// input would replace the first file.
	require.Len(t, browser.attachCalls, 1)
	assert.Equal(t, []string{"cert.pdf", "authorization.pdf"}, browser.attachCalls[0])
}

func TestAttachDocumentsDedicatedLegalInput(t *testing.T) {
	var browser *fakeBrowser
	orch := NewOrchestratorWithFactory(config.BrowserConfig{}, func(config.BrowserConfig) (Browser, error) {
		browser = &fakeBrowser{confirmID: "CASE-10"}
		return browser, nil
	})

	adapter, ok := platform.ForPlatform("linkedin")
	require.True(t, ok)
	require.NotEmpty(t, adapter.LegalDocInputs)

	req := validRequest(PlatformSelection{Platform: "linkedin", ProfileURL: "https://www.linkedin.com/in/sam"})
	req.LegalAuthorization = &Attachment{Filename: "authorization.pdf", MimeType: "application/pdf", Data: []byte("%PDF-")}

	_, err := orch.Submit(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, browser.attachCalls, 2)
	assert.Equal(t, []string{"cert.pdf"}, browser.attachCalls[0])
	assert.Equal(t, []string{"authorization.pdf"}, browser.attachCalls[1])
	assert.Equal(t, adapter.FileInputs, browser.attachLocators[0])
	assert.Equal(t, adapter.LegalDocInputs, browser.attachLocators[1])
}

func TestSubmitFailureIsolation(t *testing.T) {
	calls := 0
	orch := NewOrchestratorWithFactory(config.BrowserConfig{}, func(config.BrowserConfig) (Browser, error) {
		calls++
		if calls == 1 {
			return &fakeBrowser{navigateErr: errors.New("net::ERR_CONNECTION_REFUSED")}, nil
		}
		return &fakeBrowser{confirmID: "REF-777"}, nil
	})

	req := validRequest(
		PlatformSelection{Platform: "linkedin", ProfileURL: "https://www.linkedin.com/in/sam"},
		PlatformSelection{Platform: "instagram", ProfileURL: "https://www.instagram.com/sam"},
	)

	outcomes, err := orch.Submit(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	manual := regexp.MustCompile(`^MANUAL_LINKEDIN_\d+$`)
	assert.False(t, outcomes[0].Success)
	assert.Equal(t, MethodAutomationFailed, outcomes[0].Method)
	assert.Regexp(t, manual, outcomes[0].ConfirmationID)

	assert.True(t, outcomes[1].Success, "second platform unaffected by the first failure")
	assert.Equal(t, "REF-777", outcomes[1].ConfirmationID)
}

func TestSubmitSessionLaunchFailure(t *testing.T) {
	orch := NewOrchestratorWithFactory(config.BrowserConfig{}, func(config.BrowserConfig) (Browser, error) {
		return nil, errors.New("chrome executable not found")
	})

	req := validRequest(PlatformSelection{Platform: "youtube", ProfileURL: "https://www.youtube.com/@sam"})
	outcomes, err := orch.Submit(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Success)
	assert.Regexp(t, `^MANUAL_YOUTUBE_\d+$`, outcomes[0].ConfirmationID)
}

func TestManualOutcomeNormalizesPlatformName(t *testing.T) {
	orch := NewOrchestratorWithFactory(config.BrowserConfig{}, func(config.BrowserConfig) (Browser, error) {
		return nil, errors.New("chrome executable not found")
	})

	// Lookup tolerates unnormalized names; the outcome must still carry the
	// canonical identifier.
	req := validRequest(PlatformSelection{Platform: "  LinkedIn ", ProfileURL: "https://www.linkedin.com/in/sam"})
	outcomes, err := orch.Submit(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "linkedin", outcomes[0].Platform)
	assert.Regexp(t, `^MANUAL_LINKEDIN_\d+$`, outcomes[0].ConfirmationID)
}

func TestSubmitPanicDegradesToManual(t *testing.T) {
	orch := NewOrchestratorWithFactory(config.BrowserConfig{}, func(config.BrowserConfig) (Browser, error) {
		panic("cdp connection lost")
	})

	req := validRequest(PlatformSelection{Platform: "facebook", ProfileURL: "https://www.facebook.com/sam"})
	outcomes, err := orch.Submit(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Success)
	assert.Equal(t, MethodAutomationFailed, outcomes[0].Method)
	assert.Regexp(t, `^MANUAL_FACEBOOK_\d+$`, outcomes[0].ConfirmationID)
}

func TestSubmitMemorializationFallsBackToRemoval(t *testing.T) {
	var browser *fakeBrowser
	orch := NewOrchestratorWithFactory(config.BrowserConfig{}, func(config.BrowserConfig) (Browser, error) {
		browser = &fakeBrowser{confirmID: "TICKET-1"}
		return browser, nil
	})

	// LinkedIn has no memorialization flow.
	req := validRequest(PlatformSelection{
		Platform:    "linkedin",
		RequestType: platform.RequestMemorialization,
		ProfileURL:  "https://www.linkedin.com/in/sam",
	})
	outcomes, err := orch.Submit(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, platform.RequestRemoval, outcomes[0].RequestType)

	adapter, ok := platform.ForPlatform("linkedin")
	require.True(t, ok)
	assert.Equal(t, adapter.RemovalURL, browser.navigatedTo)
}

func TestSubmitRejectsInvalidRequest(t *testing.T) {
	orch := NewOrchestratorWithFactory(config.BrowserConfig{}, func(config.BrowserConfig) (Browser, error) {
		t.Fatal("no session should be opened for an invalid request")
		return nil, nil
	})

	req := validRequest()
	_, err := orch.Submit(context.Background(), req)
	assert.Error(t, err)
}
