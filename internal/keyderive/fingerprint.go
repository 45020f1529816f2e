package keyderive

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"runtime"
	"strings"
)

// machineIDPath holds the Linux machine id. Absent on other platforms.
const machineIDPath = "/etc/machine-id"

// Fingerprint returns a stable host-specific identifier. It combines
// hostname, OS, architecture, and the machine id when available, hashed so
// no raw component is ever written to disk or transmitted.
func Fingerprint() string {
	components := []string{
		hostname(),
		runtime.GOOS,
		runtime.GOARCH,
	}

	if data, err := os.ReadFile(machineIDPath); err == nil {
		components = append(components, strings.TrimSpace(string(data)))
	}

	combined := strings.Join(components, "|")
	hash := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(hash[:])
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}
