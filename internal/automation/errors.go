package automation

import "errors"

// Fatal errors for a single platform attempt. The orchestrator degrades the
// attempt to a manual-processing outcome when one of these surfaces.
var (
	ErrSessionLaunch         = errors.New("browser session launch failed")
	ErrNavigationTimeout     = errors.New("navigation timed out")
	ErrSubmitControlNotFound = errors.New("no submit control found")
)
