package platform

// Locator lists below are ordered by reliability: stable ids and names first,
// then aria labels, then loose attribute matches. Platforms change markup
// without notice; misses on later candidates are expected.

// LinkedIn is the professional-network adapter. Removal only.
func LinkedIn() Adapter {
	return Adapter{
		Name:            "linkedin",
		RemovalURL:      "https://www.linkedin.com/help/linkedin/ask/TS-RDMLP",
		EstimatedDays:   14,
		AcceptsLegalDoc: true,
		Fields: map[Field][]string{
			FieldRequesterFirstName: {`input[name="firstName"]`, `#first-name`, `input[aria-label*="First name"]`},
			FieldRequesterLastName:  {`input[name="lastName"]`, `#last-name`, `input[aria-label*="Last name"]`},
			FieldContactEmail:       {`input[name="email"]`, `input[type="email"]`, `#contact-email`},
			FieldDeceasedName:       {`input[name="memberName"]`, `input[name="deceasedName"]`, `input[aria-label*="member's name"]`},
			FieldProfileURL:         {`input[name="profileUrl"]`, `input[name="memberProfileUrl"]`, `input[aria-label*="profile URL"]`},
			FieldDateOfDeath:        {`input[name="dateOfDeath"]`, `input[type="date"]`},
			FieldDetails:            {`textarea[name="description"]`, `textarea[name="details"]`, `textarea`},
		},
		RelationshipSelects: []string{`select[name="relationship"]`, `select#relationship`},
		RelationshipValues: map[Relationship][]string{
			RelImmediateFamily:  {"immediate_family", "family_member", "Family member"},
			RelAuthorizedEntity: {"legal_representative", "authorized_representative", "Legal representative"},
		},
		UploadTriggers: []string{`button[aria-label*="attach"]`, `.attachment-trigger`},
		FileInputs:     []string{`input[name="deathCertificate"]`, `input[type="file"]`, `input[name="attachment"]`},
		LegalDocInputs: []string{`input[name="legalDocumentation"]`, `input[name="authorizationDocument"]`},
		SubmitControls: []string{`button[type="submit"]`, `button[data-control-name="submit"]`},
		ConfirmationBanners: []string{
			`.confirmation-message`, `[data-test-id="confirmation"]`, `.artdeco-inline-feedback--success`,
		},
	}
}

// Instagram is the photo-network adapter. Separate removal and
// memorialization forms.
func Instagram() Adapter {
	return Adapter{
		Name:                    "instagram",
		RemovalURL:              "https://help.instagram.com/contact/1474899482730688",
		MemorializationURL:      "https://help.instagram.com/contact/452224988254813",
		EstimatedDays:           21,
		AcceptsLegalDoc:         true,
		SupportsMemorialization: true,
		Fields: map[Field][]string{
			FieldRequesterName: {`input[name="your_name"]`, `input[name="full_name"]`, `#requester-name`},
			FieldContactEmail:  {`input[name="your_email"]`, `input[type="email"]`},
			FieldDeceasedName:  {`input[name="deceased_name"]`, `input[name="account_holder_name"]`},
			FieldProfileURL:    {`input[name="username"]`, `input[name="profile_url"]`, `input[aria-label*="username"]`},
			FieldDateOfDeath:   {`input[name="date_of_death"]`, `input[type="date"]`},
			FieldDetails:       {`textarea[name="additional_info"]`, `textarea`},
		},
		RelationshipSelects: []string{`select[name="relationship"]`},
		RelationshipValues: map[Relationship][]string{
			RelImmediateFamily:  {"family", "immediate_family", "Family member"},
			RelAuthorizedEntity: {"representative", "legal_rep", "Legal representative"},
		},
		RequestTypeSelects: []string{`select[name="request_type"]`},
		RequestTypeValues: map[RequestType][]string{
			RequestRemoval:         {"removal", "remove_account"},
			RequestMemorialization: {"memorialize", "memorialization"},
		},
		RequestTypeRadios: map[RequestType][]string{
			RequestRemoval:         {`input[type="radio"][value="removal"]`, `input[type="radio"][value="remove"]`},
			RequestMemorialization: {`input[type="radio"][value="memorialize"]`},
		},
		RequestTypeTexts: map[RequestType]string{
			RequestRemoval:         "Remove account",
			RequestMemorialization: "Memorialize account",
		},
		FileInputs:     []string{`input[type="file"]`, `input[name="death_certificate"]`},
		SubmitControls: []string{`button[type="submit"]`, `input[type="submit"]`},
		ConfirmationBanners: []string{
			`.confirmation`, `#success-message`, `[role="alert"]`,
		},
	}
}

// Facebook is the general-social-network adapter. Separate removal and
// memorialization forms.
func Facebook() Adapter {
	return Adapter{
		Name:                    "facebook",
		RemovalURL:              "https://www.facebook.com/help/contact/228813257197480",
		MemorializationURL:      "https://www.facebook.com/help/contact/651319028315841",
		EstimatedDays:           30,
		AcceptsLegalDoc:         true,
		SupportsMemorialization: true,
		Fields: map[Field][]string{
			FieldRequesterName: {`input[name="requester_name"]`, `input[name="your_name"]`},
			FieldContactEmail:  {`input[name="contact_email"]`, `input[type="email"]`},
			FieldDeceasedName:  {`input[name="deceased_full_name"]`, `input[name="name_of_deceased"]`},
			FieldProfileURL:    {`input[name="profile_link"]`, `input[name="timeline_url"]`},
			FieldDateOfDeath:   {`input[name="date_of_death"]`, `input[type="date"]`},
			FieldDetails:       {`textarea[name="additional_information"]`, `textarea`},
		},
		RelationshipSelects: []string{`select[name="relationship_to_deceased"]`, `select[name="relationship"]`},
		RelationshipValues: map[Relationship][]string{
			RelImmediateFamily:  {"immediate_family", "spouse", "parent", "Family member"},
			RelAuthorizedEntity: {"legal_representative", "executor", "Legal representative"},
		},
		RequestTypeRadios: map[RequestType][]string{
			RequestRemoval:         {`input[type="radio"][value="remove"]`},
			RequestMemorialization: {`input[type="radio"][value="memorialize"]`},
		},
		RequestTypeTexts: map[RequestType]string{
			RequestRemoval:         "Remove the account",
			RequestMemorialization: "Memorialize the account",
		},
		UploadTriggers: []string{`a[href="#attach"]`, `.uploadButton`},
		FileInputs:     []string{`input[name="death_certificate"]`, `input[type="file"]`, `input[name="documentation"]`},
		LegalDocInputs: []string{`input[name="legal_documentation"]`, `input[name="supporting_documents"]`},
		SubmitControls: []string{`button[type="submit"]`, `button[name="submit"]`},
		ConfirmationBanners: []string{
			`.success_message`, `#confirmation_box`, `[role="alert"]`,
		},
	}
}

// YouTube is the video-network adapter (Google deceased-user request).
// Removal only.
func YouTube() Adapter {
	return Adapter{
		Name:            "youtube",
		RemovalURL:      "https://support.google.com/accounts/contact/deceased",
		EstimatedDays:   45,
		AcceptsLegalDoc: true,
		Fields: map[Field][]string{
			FieldRequesterFirstName: {`input[name="first_name"]`, `input[aria-label*="First name"]`},
			FieldRequesterLastName:  {`input[name="last_name"]`, `input[aria-label*="Last name"]`},
			FieldContactEmail:       {`input[name="contact_email"]`, `input[type="email"]`},
			FieldDeceasedName:       {`input[name="deceased_name"]`, `input[name="account_holder"]`},
			FieldDeceasedEmail:      {`input[name="deceased_email"]`, `input[name="account_email"]`},
			FieldProfileURL:         {`input[name="channel_url"]`, `input[name="profile_url"]`},
			FieldDateOfDeath:        {`input[name="date_of_death"]`, `input[type="date"]`},
			FieldDetails:            {`textarea[name="description"]`, `textarea`},
		},
		RelationshipSelects: []string{`select[name="relationship"]`},
		RelationshipValues: map[Relationship][]string{
			RelImmediateFamily:  {"family_member", "immediate_family", "Family member"},
			RelAuthorizedEntity: {"legal_representative", "authorized_agent", "Legal representative"},
		},
		FileInputs:     []string{`input[type="file"]`},
		SubmitControls: []string{`button[type="submit"]`, `input[type="submit"]`},
		ConfirmationBanners: []string{
			`.confirmation-text`, `.support-confirmation`,
		},
		ConfirmationPatterns: []string{
			`(?i)case\s*(?:id|#)?\s*:?\s*(\d{6,})`,
		},
	}
}
