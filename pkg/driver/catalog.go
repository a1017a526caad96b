package driver

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sameehj/wifidoctor/pkg/types"
)

// basePackages are installed for any wireless hardware, known or not.
var basePackages = []string{
	"firmware-linux",
	"firmware-linux-nonfree",
	"wireless-tools",
	"wpasupplicant",
}

// genericPackages extend basePackages when no chipset profile matches.
var genericPackages = []string{
	"firmware-linux",
	"firmware-linux-nonfree",
	"wireless-tools",
	"wpasupplicant",
	"net-tools",
	"iw",
}

// emergencyModules is every candidate wifi module; the recovery path loads
// them all and lets the kernel reject the ones that do not apply.
var emergencyModules = []string{
	"ath9k", "ath9k_common", "ath9k_hw", "ath10k_pci",
	"rtl8192cu", "rtl8xxxu", "rt2800usb", "rt2x00usb",
	"iwlwifi", "iwlmvm", "brcmsmac", "b43", "wl",
}

// DefaultCatalog holds the built-in chipset profiles.
func DefaultCatalog() []types.DriverProfile {
	return []types.DriverProfile{
		{
			Name:     "atheros",
			Packages: []string{"firmware-atheros", "firmware-linux-nonfree"},
			Modules:  []string{"ath9k", "ath9k_common", "ath9k_hw"},
			Devices:  []string{"Atheros", "AR93", "AR94", "AR95"},
		},
		{
			Name:     "realtek",
			Packages: []string{"firmware-realtek", "firmware-linux-nonfree"},
			Modules:  []string{"rtl8192cu", "rtl8xxxu", "rt2800usb"},
			Devices:  []string{"Realtek", "RTL81", "RTL82"},
		},
		{
			Name:     "intel",
			Packages: []string{"firmware-iwlwifi", "firmware-linux"},
			Modules:  []string{"iwlwifi", "iwlmvm"},
			Devices:  []string{"Intel", "Centrino", "Wireless-AC"},
		},
		{
			Name:     "broadcom",
			Packages: []string{"firmware-brcm80211", "b43-fwcutter"},
			Modules:  []string{"brcmsmac", "b43"},
			Devices:  []string{"Broadcom", "BCM43"},
		},
	}
}

// LoadCatalog merges a YAML profile overlay into the built-in catalog.
// Profiles sharing a name replace the built-in entry; new names append.
func LoadCatalog(path string) ([]types.DriverProfile, error) {
	catalog := DefaultCatalog()
	if path == "" {
		return catalog, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read driver profiles: %w", err)
	}
	var overlay struct {
		Profiles []types.DriverProfile `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse driver profiles: %w", err)
	}
	for _, p := range overlay.Profiles {
		replaced := false
		for i := range catalog {
			if catalog[i].Name == p.Name {
				catalog[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			catalog = append(catalog, p)
		}
	}
	return catalog, nil
}
