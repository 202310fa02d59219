package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nikkiricks/forgotten/internal/platform"
	"github.com/nikkiricks/forgotten/internal/retention"
	"github.com/nikkiricks/forgotten/internal/submit"
	"github.com/nikkiricks/forgotten/internal/tracking"
)

const (
	maxMultipartMemory = 32 << 20
	maxAttachmentBytes = 10 << 20
)

// submissionResponse is returned by POST /api/submissions.
type submissionResponse struct {
	RequestID           string           `json:"requestId"`
	TrackingNumber      string           `json:"trackingNumber"`
	Outcomes            []submit.Outcome `json:"outcomes"`
	EstimatedCompletion time.Time        `json:"estimatedCompletion"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("parse multipart form: %v", err))
		return
	}

	req, err := parseSubmission(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcomes, err := s.submitter.Submit(r.Context(), req)
	if err != nil {
		// Submit only errs on validation; everything downstream degrades
		// to per-platform manual outcomes.
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	platforms := make([]string, 0, len(outcomes))
	maxDays := 0
	for _, o := range outcomes {
		platforms = append(platforms, o.Platform)
		if o.EstimatedDays > maxDays {
			maxDays = o.EstimatedDays
		}
	}

	trackingNumber, err := s.trackingS.Create(platforms, maxDays)
	if err != nil {
		s.log.Errorw("tracking record creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "submission processed but tracking record could not be created")
		return
	}

	writeJSON(w, http.StatusOK, submissionResponse{
		RequestID:           uuid.NewString(),
		TrackingNumber:      trackingNumber,
		Outcomes:            outcomes,
		EstimatedCompletion: time.Now().AddDate(0, 0, maxDays),
	})
}

// parseSubmission maps the multipart form onto a submission request. Platform
// selections come as repeated "platforms" values with per-platform
// "<name>ProfileUrl" and "<name>RequestType" companions.
func parseSubmission(r *http.Request) (*submit.Request, error) {
	form := r.MultipartForm

	req := &submit.Request{
		RequesterFirstName: strings.TrimSpace(r.FormValue("firstName")),
		RequesterLastName:  strings.TrimSpace(r.FormValue("lastName")),
		ContactEmail:       strings.TrimSpace(r.FormValue("email")),
		DeceasedName:       strings.TrimSpace(r.FormValue("deceasedName")),
		DeceasedEmail:      strings.TrimSpace(r.FormValue("deceasedEmail")),
		DateOfDeath:        strings.TrimSpace(r.FormValue("dateOfDeath")),
		AdditionalInfo:     strings.TrimSpace(r.FormValue("additionalInfo")),
		Signature:          strings.TrimSpace(r.FormValue("signature")),
		Relationship:       platform.Relationship(strings.TrimSpace(r.FormValue("relationship"))),
	}

	for _, name := range form.Value["platforms"] {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		req.Selections = append(req.Selections, submit.PlatformSelection{
			Platform:    name,
			RequestType: platform.RequestType(strings.TrimSpace(r.FormValue(name + "RequestType"))),
			ProfileURL:  strings.TrimSpace(r.FormValue(name + "ProfileUrl")),
		})
	}

	cert, err := readAttachment(r, "deathCertificate")
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return nil, errors.New("death certificate attachment is required")
	}
	req.DeathCertificate = *cert

	legal, err := readAttachment(r, "legalAuthorization")
	if err != nil {
		return nil, err
	}
	req.LegalAuthorization = legal

	return req, nil
}

func readAttachment(r *http.Request, field string) (*submit.Attachment, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	defer file.Close()

	if header.Size > maxAttachmentBytes {
		return nil, fmt.Errorf("%s exceeds the %d MB limit", field, maxAttachmentBytes>>20)
	}
	data, err := io.ReadAll(io.LimitReader(file, maxAttachmentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	if len(data) > maxAttachmentBytes {
		return nil, fmt.Errorf("%s exceeds the %d MB limit", field, maxAttachmentBytes>>20)
	}
	return &submit.Attachment{
		Filename: header.Filename,
		MimeType: contentType(header),
		Data:     data,
	}, nil
}

func contentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	rec, err := s.trackingS.GetStatus(chi.URLParam(r, "trackingNumber"))
	if err != nil {
		writeTrackingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetLegacyStatus(w http.ResponseWriter, r *http.Request) {
	rec, err := s.trackingS.FindByLegacyID(chi.URLParam(r, "confirmationID"))
	if err != nil {
		writeTrackingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type statusUpdateRequest struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	status, ok := parseStatus(body.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", body.Status))
		return
	}
	if err := s.trackingS.UpdateStatus(chi.URLParam(r, "trackingNumber"), status, body.Message); err != nil {
		writeTrackingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "updated"})
}

func (s *Server) handleUpdatePlatformStatus(w http.ResponseWriter, r *http.Request) {
	var body statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	status, ok := parseStatus(body.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", body.Status))
		return
	}
	err := s.trackingS.UpdatePlatformStatus(
		chi.URLParam(r, "trackingNumber"),
		strings.ToLower(chi.URLParam(r, "platform")),
		status, body.Message,
	)
	if err != nil {
		writeTrackingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "updated"})
}

type migrateRequest struct {
	ConfirmationID string            `json:"confirmationId"`
	CreatedAt      time.Time         `json:"createdAt"`
	ProfileURLs    map[string]string `json:"profileUrls"`
	EstimatedDays  int               `json:"estimatedDays"`
}

func (s *Server) handleMigrateLegacy(w http.ResponseWriter, r *http.Request) {
	var body migrateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.ConfirmationID == "" {
		writeError(w, http.StatusBadRequest, "confirmationId is required")
		return
	}
	if body.CreatedAt.IsZero() {
		body.CreatedAt = time.Now()
	}
	trackingNumber, err := s.trackingS.MigrateFromLegacy(tracking.LegacyRecord{
		ConfirmationID: body.ConfirmationID,
		CreatedAt:      body.CreatedAt,
		ProfileURLs:    body.ProfileURLs,
		EstimatedDays:  body.EstimatedDays,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"trackingNumber": trackingNumber})
}

func (s *Server) handleRetentionStats(w http.ResponseWriter, _ *http.Request) {
	stats, err := s.discovery.GetStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type discoveryStoreRequest struct {
	Criteria struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		Username string `json:"username"`
	} `json:"criteria"`
	Results []struct {
		Platform   string  `json:"platform"`
		URL        string  `json:"url"`
		Name       string  `json:"name"`
		Bio        string  `json:"bio"`
		Followers  int     `json:"followers"`
		Confidence float64 `json:"confidence"`
	} `json:"results"`
	LegalBasis string `json:"legalBasis"`
}

func (s *Server) handleStoreDiscovery(w http.ResponseWriter, r *http.Request) {
	var body discoveryStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.LegalBasis == "" {
		writeError(w, http.StatusBadRequest, "legalBasis is required")
		return
	}

	raw := make([]retention.RawProfile, 0, len(body.Results))
	for _, p := range body.Results {
		raw = append(raw, retention.RawProfile{
			Platform:   p.Platform,
			URL:        p.URL,
			Name:       p.Name,
			Bio:        p.Bio,
			Followers:  p.Followers,
			Confidence: p.Confidence,
		})
	}

	searchID, err := s.discovery.Store(retention.SearchCriteria{
		FullName: body.Criteria.FullName,
		Email:    body.Criteria.Email,
		Username: body.Criteria.Username,
	}, raw, body.LegalBasis)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"searchId": searchID})
}

func (s *Server) handleGetDiscovery(w http.ResponseWriter, r *http.Request) {
	set, err := s.discovery.Get(chi.URLParam(r, "searchID"))
	if errors.Is(err, retention.ErrNotFound) {
		writeError(w, http.StatusNotFound, "result set not found or expired")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleDeleteDiscovery(w http.ResponseWriter, r *http.Request) {
	reason := r.URL.Query().Get("reason")
	if reason == "" {
		reason = retention.ReasonUserRequest
	}
	err := s.discovery.Delete(chi.URLParam(r, "searchID"), reason)
	if errors.Is(err, retention.ErrNotFound) {
		writeError(w, http.StatusNotFound, "result set not found or expired")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "deleted"})
}

func parseStatus(s string) (tracking.Status, bool) {
	switch status := tracking.Status(strings.ToLower(strings.TrimSpace(s))); status {
	case tracking.StatusSubmitted, tracking.StatusProcessing, tracking.StatusCompleted,
		tracking.StatusFailed, tracking.StatusActionRequired:
		return status, true
	default:
		return "", false
	}
}

func writeTrackingError(w http.ResponseWriter, err error) {
	if errors.Is(err, tracking.ErrNotFound) {
		writeError(w, http.StatusNotFound, "tracking record not found or expired")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
