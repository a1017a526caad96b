package types

import "strings"

// DriverProfile describes one wireless chipset family: the firmware packages
// it needs, the kernel modules that drive it, and the substrings that
// identify it in lspci/lsusb output.
type DriverProfile struct {
	Name     string   `yaml:"name" json:"name"`
	Packages []string `yaml:"packages" json:"packages"`
	Modules  []string `yaml:"modules" json:"modules"`
	Devices  []string `yaml:"devices" json:"devices"`
}

// Matches reports whether the hardware description mentions this profile.
// Matching is case-insensitive on the profile's device substrings.
func (p *DriverProfile) Matches(hardware string) bool {
	if hardware == "" {
		return false
	}
	lower := strings.ToLower(hardware)
	for _, dev := range p.Devices {
		if dev != "" && strings.Contains(lower, strings.ToLower(dev)) {
			return true
		}
	}
	return false
}
