package plugin

import (
	"crypto/sha1"
	"fmt"
)

// Info contains processor metadata
type Info struct {
	ID       string // Unique identifier (e.g., "org.open-ephys.neuropixels-car")
	Name     string // Display name
	Version  string // Semantic version (e.g., "1.0.0")
	Vendor   string
	Category string // e.g. "Filter", "Sink"
}

// UID derives a stable 16-byte identifier from the string ID, laid out as
// a name-based (version 5) UUID.
func (i Info) UID() [16]byte {
	sum := sha1.Sum([]byte(i.ID))
	var uid [16]byte
	copy(uid[:], sum[:16])
	uid[6] = (uid[6] & 0x0f) | 0x50
	uid[8] = (uid[8] & 0x3f) | 0x80
	return uid
}

// String formats the info as "Name Version (ID)"
func (i Info) String() string {
	return fmt.Sprintf("%s %s (%s)", i.Name, i.Version, i.ID)
}

// FormatUID renders a UID in the canonical 8-4-4-4-12 form
func FormatUID(uid [16]byte) string {
	return fmt.Sprintf("%x-%x-%x-%x-%x", uid[0:4], uid[4:6], uid[6:8], uid[8:10], uid[10:16])
}
