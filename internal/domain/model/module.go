package model

// ResultSuccess is the literal token the host expects from a lifecycle
// callback that succeeded. Anything else is shown to the user as an error.
const ResultSuccess = "success"

// ClientAreaResult names the template the host should render and the
// variables to render it with.
type ClientAreaResult struct {
	TemplateFile string         `json:"templatefile"`
	Vars         map[string]any `json:"vars"`
}

// SSOResult is the single-sign-on callback response.
type SSOResult struct {
	Success    bool   `json:"success"`
	RedirectTo string `json:"redirectTo,omitempty"`
	ErrorMsg   string `json:"errorMsg,omitempty"`
}

// Button maps a host button label to the callback function it triggers.
type Button struct {
	Label    string `json:"label"`
	Function string `json:"function"`
}

// ButtonResult is the outcome of a custom button callback. Result follows the
// lifecycle contract; Status and RedirectTo are set by the status and console
// buttons on success.
type ButtonResult struct {
	Result     string `json:"result"`
	Status     string `json:"status,omitempty"`
	RedirectTo string `json:"redirectTo,omitempty"`
}
