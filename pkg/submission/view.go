package submission

// View is the UI surface owned by one widget instance. The workflow holds an
// explicit reference to it instead of looking elements up globally.
// Implementations must not call back into the Workflow.
type View interface {
	SetTriggerEnabled(enabled bool)
	ShowLoader()
	HideLoader()
	ShowValidationError(message string)
	ClearValidationError()
	ShowSuccess(message string)
	HideSuccess()
	ShowFailure(message string)
	DismissFailure()
	Close()
}
