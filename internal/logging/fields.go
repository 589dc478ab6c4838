package logging

// Standardized structured-field keys shared across components so log
// consumers can filter on a stable vocabulary.
const (
	FieldComponent = "component"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	FieldImpact    = "impact"
	FieldStage     = "stage"
	FieldSessionID = "session_id"

	FieldGame    = "game"
	FieldSystem  = "system"
	FieldCore    = "core"
	FieldHintID  = "hint_id"
	FieldTrigger = "trigger"
	FieldBackend = "backend"
)
