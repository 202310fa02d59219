package main

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nikkiricks/forgotten/internal/config"
	"github.com/nikkiricks/forgotten/internal/platform"
	"github.com/nikkiricks/forgotten/internal/retention"
	"github.com/nikkiricks/forgotten/internal/submit"
	"github.com/nikkiricks/forgotten/internal/tracking"
)

var (
	submitFirstName      string
	submitLastName       string
	submitEmail          string
	submitDeceasedName   string
	submitDeceasedEmail  string
	submitDateOfDeath    string
	submitRelationship   string
	submitSignature      string
	submitAdditionalInfo string
	submitDeathCertPath  string
	submitLegalAuthPath  string
	submitPlatforms      []string
	submitMemorialize    []string
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit requests to the selected platforms from the command line",
	Long: `Runs the full per-platform submission sequence without the HTTP
service and prints the outcomes plus a tracking number.

Platforms are given as name=profile-url pairs:

  forgotten submit \
    --first-name Ada --last-name Example --email ada@example.org \
    --deceased-name "Sam Example" --relationship immediate_family \
    --signature "Ada Example" --death-cert cert.pdf \
    --platform linkedin=https://www.linkedin.com/in/sam-example \
    --platform facebook=https://www.facebook.com/sam.example \
    --memorialize facebook`,
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&submitFirstName, "first-name", "", "Requester first name")
	submitCmd.Flags().StringVar(&submitLastName, "last-name", "", "Requester last name")
	submitCmd.Flags().StringVar(&submitEmail, "email", "", "Requester contact email")
	submitCmd.Flags().StringVar(&submitDeceasedName, "deceased-name", "", "Full name of the deceased")
	submitCmd.Flags().StringVar(&submitDeceasedEmail, "deceased-email", "", "Email of the deceased, if known")
	submitCmd.Flags().StringVar(&submitDateOfDeath, "date-of-death", "", "Date of death (YYYY-MM-DD)")
	submitCmd.Flags().StringVar(&submitRelationship, "relationship", string(platform.RelImmediateFamily), "Relationship: immediate_family or authorized_entity")
	submitCmd.Flags().StringVar(&submitSignature, "signature", "", "Digital signature (typed full name)")
	submitCmd.Flags().StringVar(&submitAdditionalInfo, "additional-info", "", "Additional context for the platform")
	submitCmd.Flags().StringVar(&submitDeathCertPath, "death-cert", "", "Path to the death certificate")
	submitCmd.Flags().StringVar(&submitLegalAuthPath, "legal-auth", "", "Path to a legal authorization document")
	submitCmd.Flags().StringArrayVar(&submitPlatforms, "platform", nil, "Platform selection as name=profile-url (repeatable)")
	submitCmd.Flags().StringArrayVar(&submitMemorialize, "memorialize", nil, "Request memorialization instead of removal for this platform (repeatable)")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	req, err := buildRequest()
	if err != nil {
		return err
	}

	orchestrator := submit.NewOrchestrator(cfg.Browser)
	outcomes, err := orchestrator.Submit(context.Background(), req)
	if err != nil {
		return err
	}

	plog, err := retention.NewPrivacyLog(cfg.PrivacyLogDir, cfg.Retention.GetLogWindow())
	if err != nil {
		return err
	}
	store, err := tracking.NewStore(cfg.DatabasePath, cfg.Retention.GetTrackingWindow(), plog)
	if err != nil {
		return err
	}
	defer store.Close()

	platforms := make([]string, 0, len(outcomes))
	maxDays := 0
	for _, o := range outcomes {
		platforms = append(platforms, o.Platform)
		if o.EstimatedDays > maxDays {
			maxDays = o.EstimatedDays
		}
	}
	trackingNumber, err := store.Create(platforms, maxDays)
	if err != nil {
		return err
	}

	out, _ := json.MarshalIndent(map[string]any{
		"trackingNumber": trackingNumber,
		"outcomes":       outcomes,
	}, "", "  ")
	fmt.Println(string(out))
	return nil
}

func buildRequest() (*submit.Request, error) {
	memorialize := make(map[string]bool, len(submitMemorialize))
	for _, name := range submitMemorialize {
		memorialize[strings.ToLower(strings.TrimSpace(name))] = true
	}

	req := &submit.Request{
		RequesterFirstName: submitFirstName,
		RequesterLastName:  submitLastName,
		ContactEmail:       submitEmail,
		DeceasedName:       submitDeceasedName,
		DeceasedEmail:      submitDeceasedEmail,
		DateOfDeath:        submitDateOfDeath,
		AdditionalInfo:     submitAdditionalInfo,
		Signature:          submitSignature,
		Relationship:       platform.Relationship(submitRelationship),
	}

	for _, pair := range submitPlatforms {
		name, url, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --platform value %q, expected name=profile-url", pair)
		}
		name = strings.ToLower(strings.TrimSpace(name))
		requestType := platform.RequestRemoval
		if memorialize[name] {
			requestType = platform.RequestMemorialization
		}
		req.Selections = append(req.Selections, submit.PlatformSelection{
			Platform:    name,
			RequestType: requestType,
			ProfileURL:  strings.TrimSpace(url),
		})
	}

	if submitDeathCertPath == "" {
		return nil, fmt.Errorf("--death-cert is required")
	}
	cert, err := loadAttachment(submitDeathCertPath)
	if err != nil {
		return nil, err
	}
	req.DeathCertificate = *cert

	if submitLegalAuthPath != "" {
		legal, err := loadAttachment(submitLegalAuthPath)
		if err != nil {
			return nil, err
		}
		req.LegalAuthorization = legal
	}
	return req, nil
}

func loadAttachment(path string) (*submit.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &submit.Attachment{
		Filename: filepath.Base(path),
		MimeType: mimeType,
		Data:     data,
	}, nil
}
