package application

// Fixed messages returned to the host. The host shows them to the user verbatim.
const (
	MsgConnectFailed     = "Failed to connect to Proxmox API"
	MsgNotFound          = "VM details not found"
	MsgCreateFailed      = "Failed to create VM"
	MsgSuspendFailed     = "Failed to suspend VM"
	MsgUnsuspendFailed   = "Failed to unsuspend VM"
	MsgTerminateFailed   = "Failed to terminate VM"
	MsgRestartFailed     = "Failed to restart VM"
	MsgStatusFailed      = "Failed to get VM status"
	MsgConsoleFailed     = "Failed to get console access"
	MsgStatusUnknown     = "Unknown"
	TemplateClientArea   = "clientarea"
	TemplateError        = "error"
	generatedPasswordLen = 12
)
