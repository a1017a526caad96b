package types

// HealthReport aggregates the read-only host checks. Every field is a plain
// observation; nothing in here mutates the host.
type HealthReport struct {
	System   SystemHealth   `json:"system"`
	Packages PackageHealth  `json:"packages"`
	Network  NetworkHealth  `json:"network"`
	Hardware HardwareHealth `json:"hardware"`
	Overall  bool           `json:"overall"`
}

type SystemHealth struct {
	DiskSpaceOK bool   `json:"diskSpaceOk"`
	MemoryOK    bool   `json:"memoryOk"`
	Kernel      string `json:"kernel"`
	Uptime      string `json:"uptime"`
}

type PackageHealth struct {
	AptWorking       bool `json:"aptWorking"`
	SourcesValid     bool `json:"sourcesValid"`
	KeyringInstalled bool `json:"keyringInstalled"`
	NoBrokenPackages bool `json:"noBrokenPackages"`
	CacheFresh       bool `json:"cacheFresh"`
}

type NetworkHealth struct {
	RepoReachable   bool `json:"repoReachable"`
	DNSWorking      bool `json:"dnsWorking"`
	WifiHardware    bool `json:"wifiHardware"`
	ServicesRunning bool `json:"servicesRunning"`
}

type HardwareHealth struct {
	WirelessInterfaces []string `json:"wirelessInterfaces"`
	WirelessModules    []string `json:"wirelessModules"`
	WifiDevices        []string `json:"wifiDevices"`
}
