package model

// ModuleParams is the parameter set the host passes to every callback.
// Config options are positional, matching the product configuration order.
type ModuleParams struct {
	ServiceID      int64  `json:"serviceid" yaml:"serviceid"`
	ServerHostname string `json:"serverhostname" yaml:"serverhostname"`
	ServerUsername string `json:"serverusername" yaml:"serverusername"`
	ServerPassword string `json:"serverpassword" yaml:"serverpassword"`
	Domain         string `json:"domain" yaml:"domain"`
	Password       string `json:"password" yaml:"password"`

	ConfigOption1  string `json:"configoption1" yaml:"configoption1"`   // Node
	ConfigOption2  string `json:"configoption2" yaml:"configoption2"`   // VMID, empty for auto-assignment
	ConfigOption3  string `json:"configoption3" yaml:"configoption3"`   // OS template
	ConfigOption4  string `json:"configoption4" yaml:"configoption4"`   // CPU cores
	ConfigOption5  string `json:"configoption5" yaml:"configoption5"`   // RAM (MB)
	ConfigOption6  string `json:"configoption6" yaml:"configoption6"`   // Disk (GB)
	ConfigOption7  string `json:"configoption7" yaml:"configoption7"`   // Bandwidth (MB/s)
	ConfigOption8  string `json:"configoption8" yaml:"configoption8"`   // IP address or "dhcp"
	ConfigOption9  string `json:"configoption9" yaml:"configoption9"`   // Gateway
	ConfigOption10 string `json:"configoption10" yaml:"configoption10"` // Netmask
	ConfigOption11 string `json:"configoption11" yaml:"configoption11"` // Guest type: lxc or qemu
}

// Redacted returns a copy safe to log: both passwords are masked.
func (p ModuleParams) Redacted() ModuleParams {
	if p.ServerPassword != "" {
		p.ServerPassword = "***"
	}
	if p.Password != "" {
		p.Password = "***"
	}
	return p
}
