package constants

// IntakeStatus is the canonical lifecycle status for rows in voice_intakes.
type IntakeStatus string

// Stable values (store these exact strings in DB).
const (
	IntakeStatusCaptured        IntakeStatus = "captured"          // audio stored, nothing processed
	IntakeStatusTranscribed     IntakeStatus = "transcribed"       // transcript persisted
	IntakeStatusExtracted       IntakeStatus = "extracted"         // extraction passed the quality gate
	IntakeStatusNeedsUserReview IntakeStatus = "needs_user_review" // blocked on human input
	IntakeStatusQuoteCreated    IntakeStatus = "quote_created"     // terminal: line items exist
)

// CanTranscribe reports whether the transcription stage may run for this status.
func (s IntakeStatus) CanTranscribe() bool { return s == IntakeStatusCaptured }

// CanExtract reports whether the extraction stage may run for this status.
func (s IntakeStatus) CanExtract() bool {
	return s == IntakeStatusTranscribed || s == IntakeStatusNeedsUserReview
}
