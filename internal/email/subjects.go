package email

const (
	fromName              = "Nordflytt Leads"
	subjectLeadReviewFmt  = "Lead behöver granskas: %s"
	subjectLeadFailedFmt  = "Lead kunde inte bokas: %s"
	subjectFallbackLeadID = "okänt lead-ID"
)
