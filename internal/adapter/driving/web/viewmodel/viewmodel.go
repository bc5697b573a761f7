// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// ClientAreaViewModel holds presentation-ready data for the service page.
type ClientAreaViewModel struct {
	VMID        string
	Node        string
	Type        string
	Status      string
	StatusLabel string
	StatusClass string
	Password    string
	Cores       string
	MemoryMB    string
	DiskGB      string
	Bandwidth   string
	IP          string
	NoticeHTML  string // already sanitised
	Buttons     []ButtonViewModel
}

// ButtonViewModel is one client-area action label.
type ButtonViewModel struct {
	Label    string
	Function string
}

// ErrorViewModel holds the message shown when the page cannot be built.
type ErrorViewModel struct {
	Message string
}
