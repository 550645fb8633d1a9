package models

// Variable is the structured subject selected by a "." prefixed token.
type Variable string

const (
	VarNone     Variable = ""
	VarAlert    Variable = "alert"
	VarTask     Variable = "task"
	VarNote     Variable = "note"
	VarImage    Variable = "image"
	VarQuestion Variable = "question"
)

// ParsedCommand is the transient result of parsing a single message. It is
// produced per message and never persisted.
type ParsedCommand struct {
	Variable     Variable
	Value        string
	Flags        map[string]string
	CleanMessage string
}

// Intent is a canonical action label produced by the fallback classifier.
type Intent string

const (
	IntentAlertCreate Intent = "alert.create"
	IntentAlertList   Intent = "alert.list"
	IntentTaskCreate  Intent = "task.create"
	IntentTaskList    Intent = "task.list"
	IntentNoteCreate  Intent = "note.create"
	IntentNoteList    Intent = "note.list"
	IntentImageCreate Intent = "image.create"
	IntentImageList   Intent = "image.list"
	IntentSearch      Intent = "search"
	IntentQuestion    Intent = "question"
)

var knownIntents = map[Intent]struct{}{
	IntentAlertCreate: {},
	IntentAlertList:   {},
	IntentTaskCreate:  {},
	IntentTaskList:    {},
	IntentNoteCreate:  {},
	IntentNoteList:    {},
	IntentImageCreate: {},
	IntentImageList:   {},
	IntentSearch:      {},
	IntentQuestion:    {},
}

// KnownIntent reports whether s names an intent in the fixed vocabulary.
func KnownIntent(s string) (Intent, bool) {
	in := Intent(s)
	_, ok := knownIntents[in]
	return in, ok
}
