package submit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nikkiricks/forgotten/internal/automation"
	"github.com/nikkiricks/forgotten/internal/config"
	"github.com/nikkiricks/forgotten/internal/logging"
	"github.com/nikkiricks/forgotten/internal/platform"
)

// Browser is the session surface the orchestrator drives. Satisfied by
// *automation.Session; tests inject fakes through the session factory.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	FillField(locators []string, value string) bool
	SelectOption(locators []string, values []string) bool
	Click(locators []string) bool
	ClickByVisibleText(text string) bool
	AttachFiles(locators []string, triggers []string, uploads []automation.Upload) error
	Submit(locators []string) error
	ExtractConfirmation(platformName string, banners []string, patterns []string) string
	Close()
}

// SessionFactory opens a fresh isolated session for one platform attempt.
type SessionFactory func(cfg config.BrowserConfig) (Browser, error)

func defaultFactory(cfg config.BrowserConfig) (Browser, error) {
	return automation.Open(cfg)
}

// Orchestrator runs the per-platform fill/upload/submit/confirm sequence.
type Orchestrator struct {
	cfg        config.BrowserConfig
	newSession SessionFactory
	log        *zap.SugaredLogger
	now        func() time.Time
}

// NewOrchestrator builds an orchestrator that launches real browser sessions.
func NewOrchestrator(cfg config.BrowserConfig) *Orchestrator {
	return NewOrchestratorWithFactory(cfg, defaultFactory)
}

// NewOrchestratorWithFactory builds an orchestrator with a custom session
// factory.
func NewOrchestratorWithFactory(cfg config.BrowserConfig, factory SessionFactory) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		newSession: factory,
		log:        logging.Get(logging.CategorySubmit),
		now:        time.Now,
	}
}

// Submit processes every platform selection sequentially and returns exactly
// one outcome per selection. Platform attempts are independent: an
// unrecoverable failure on one platform degrades that platform's outcome to
// manual processing and never aborts the others. Attempts run sequentially
// because each consumes a full browser process; this bounds peak resource
// usage and avoids correlated rate limiting.
func (o *Orchestrator) Submit(ctx context.Context, req *Request) ([]Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(req.Selections))
	for _, sel := range req.Selections {
		outcomes = append(outcomes, o.submitPlatform(ctx, req, sel))
	}
	return outcomes, nil
}

func (o *Orchestrator) submitPlatform(ctx context.Context, req *Request, sel PlatformSelection) (out Outcome) {
	adapter, _ := platform.ForPlatform(sel.Platform)
	requestType := sel.RequestType
	if requestType == "" || !adapter.SupportsMemorialization {
		requestType = platform.RequestRemoval
	}

	// Unexpected panics from the automation layer degrade to manual
	// processing like any other fatal error.
	defer func() {
		if r := recover(); r != nil {
			o.log.Errorw("platform attempt panicked", "platform", adapter.Name, "panic", r)
			out = o.manualOutcome(adapter, requestType, fmt.Errorf("unexpected failure: %v", r))
		}
	}()

	o.log.Infow("starting platform attempt", "platform", adapter.Name, "requestType", requestType)

	session, err := o.newSession(o.cfg)
	if err != nil {
		return o.manualOutcome(adapter, requestType, err)
	}
	defer session.Close()

	if err := session.Navigate(ctx, adapter.FormURL(requestType)); err != nil {
		return o.manualOutcome(adapter, requestType, err)
	}

	o.fillFields(session, req, sel, adapter, requestType)
	o.selectRelationship(session, req, adapter)
	o.selectRequestType(session, adapter, requestType)
	o.attachDocuments(session, req, adapter, requestType)

	if err := session.Submit(adapter.SubmitControls); err != nil {
		return o.manualOutcome(adapter, requestType, err)
	}

	confirmationID := session.ExtractConfirmation(adapter.Name, adapter.ConfirmationBanners, adapter.ConfirmationPatterns)
	o.log.Infow("platform attempt succeeded", "platform", adapter.Name, "confirmationId", confirmationID)

	return Outcome{
		Platform:       adapter.Name,
		Success:        true,
		ConfirmationID: confirmationID,
		Message:        "Request submitted automatically. Keep the confirmation id for follow-up.",
		Method:         MethodAutomatedForm,
		EstimatedDays:  adapter.EstimatedDays,
		RequestType:    requestType,
	}
}

func (o *Orchestrator) fillFields(session Browser, req *Request, sel PlatformSelection, adapter platform.Adapter, rt platform.RequestType) {
	values := map[platform.Field]string{
		platform.FieldRequesterFirstName: req.RequesterFirstName,
		platform.FieldRequesterLastName:  req.RequesterLastName,
		platform.FieldRequesterName:      req.RequesterName(),
		platform.FieldContactEmail:       req.ContactEmail,
		platform.FieldDeceasedName:       req.DeceasedName,
		platform.FieldDeceasedEmail:      req.DeceasedEmail,
		platform.FieldProfileURL:         sel.ProfileURL,
		platform.FieldDateOfDeath:        req.DateOfDeath,
		platform.FieldDetails: platform.BuildDescription(platform.DescriptionInput{
			RequesterName:         req.RequesterName(),
			ContactEmail:          req.ContactEmail,
			DeceasedName:          req.DeceasedName,
			DateOfDeath:           req.DateOfDeath,
			ProfileURL:            sel.ProfileURL,
			Relationship:          req.Relationship,
			RequestType:           rt,
			AdditionalInfo:        req.AdditionalInfo,
			HasLegalAuthorization: req.LegalAuthorization != nil && adapter.AcceptsLegalDoc,
		}),
	}

	for field, locators := range adapter.Fields {
		value := values[field]
		if value == "" {
			continue
		}
		session.FillField(locators, value)
	}
}

func (o *Orchestrator) selectRelationship(session Browser, req *Request, adapter platform.Adapter) {
	candidates := adapter.RelationshipValues[req.Relationship]
	if len(adapter.RelationshipSelects) == 0 || len(candidates) == 0 {
		return
	}
	if !session.SelectOption(adapter.RelationshipSelects, candidates) {
		// Some forms render the relationship as clickable labels instead.
		session.ClickByVisibleText(candidates[len(candidates)-1])
	}
}

// selectRequestType applies the request-type strategy: select-element value,
// then radio value, then text-based click, tried in that order.
func (o *Orchestrator) selectRequestType(session Browser, adapter platform.Adapter, rt platform.RequestType) {
	if !adapter.SupportsMemorialization {
		return
	}
	if values := adapter.RequestTypeValues[rt]; len(adapter.RequestTypeSelects) > 0 && len(values) > 0 {
		if session.SelectOption(adapter.RequestTypeSelects, values) {
			return
		}
	}
	if radios := adapter.RequestTypeRadios[rt]; len(radios) > 0 {
		if session.Click(radios) {
			return
		}
	}
	if text := adapter.RequestTypeTexts[rt]; text != "" {
		session.ClickByVisibleText(text)
	}
}

// attachDocuments stages the death certificate and, where accepted, the
// legal-authorization document. Forms with a dedicated legal-doc input get
// one attachment per input; forms with a single shared input get both
// documents in one call, since setting files on an input replaces its list.
func (o *Orchestrator) attachDocuments(session Browser, req *Request, adapter platform.Adapter, rt platform.RequestType) {
	certificate := []automation.Upload{{
		Filename: req.DeathCertificate.Filename,
		Data:     req.DeathCertificate.Data,
	}}

	if req.LegalAuthorization == nil || !adapter.AcceptsLegalDoc {
		if err := session.AttachFiles(adapter.FileInputs, adapter.UploadTriggers, certificate); err != nil {
			o.log.Warnw("death certificate attachment failed", "platform", adapter.Name, "error", err)
		}
		return
	}

	legal := automation.Upload{
		Filename: req.LegalAuthorization.Filename,
		Data:     req.LegalAuthorization.Data,
	}

	if len(adapter.LegalDocInputs) > 0 {
		if err := session.AttachFiles(adapter.FileInputs, adapter.UploadTriggers, certificate); err != nil {
			o.log.Warnw("death certificate attachment failed", "platform", adapter.Name, "error", err)
		}
		if err := session.AttachFiles(adapter.LegalDocInputs, nil, []automation.Upload{legal}); err != nil {
			o.log.Warnw("legal authorization attachment failed", "platform", adapter.Name, "error", err)
		}
		return
	}

	if err := session.AttachFiles(adapter.FileInputs, adapter.UploadTriggers, append(certificate, legal)); err != nil {
		o.log.Warnw("document attachment failed", "platform", adapter.Name, "error", err)
	}
}

// manualOutcome is the fallback for any unrecoverable per-platform failure:
// the requester still receives a usable identifier for manual follow-up. The
// adapter's canonical name keeps the identifier well-formed even when the
// caller passed an unnormalized platform string.
func (o *Orchestrator) manualOutcome(adapter platform.Adapter, rt platform.RequestType, cause error) Outcome {
	o.log.Warnw("platform attempt degraded to manual processing", "platform", adapter.Name, "error", cause)
	return Outcome{
		Platform:       adapter.Name,
		Success:        false,
		ConfirmationID: fmt.Sprintf("MANUAL_%s_%d", strings.ToUpper(adapter.Name), o.now().Unix()),
		Message:        cause.Error(),
		Method:         MethodAutomationFailed,
		EstimatedDays:  adapter.EstimatedDays,
		RequestType:    rt,
	}
}
