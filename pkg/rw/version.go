package rw

import "fmt"

// Library ids written by the supported games.
const (
	LibraryIII = 0x0401FFFF // 3.1.0.1
	LibraryVC  = 0x0C02FFFF // 3.3.0.2
	LibrarySA  = 0x1803FFFF // 3.6.0.3
)

// legacyVersionLimit is the last version stored in the legacy (unpacked) form.
const legacyVersionLimit = 0x31000

// LibraryID packs a version and build into a library id. Versions up to
// 3.1.0.0 use the legacy layout which has no room for a build number.
func LibraryID(version, build uint32) uint32 {
	if version <= legacyVersionLimit {
		return version >> 8
	}
	return ((version-0x30000)&0x3FF00)<<14 | (version&0x3F)<<16 | build&0xFFFF
}

// UnpackLibraryID splits a library id into its version and build.
func UnpackLibraryID(id uint32) (version, build uint32, err error) {
	if id&0xFFFF0000 != 0 {
		version = (id>>14&0x3FF00 + 0x30000) | id>>16&0x3F
		if version <= legacyVersionLimit {
			return 0, 0, fmt.Errorf("%w: 0x%08X decodes to legacy version 0x%X", ErrInvalidVersion, id, version)
		}
		return version, id & 0xFFFF, nil
	}
	if id == 0 || id<<8 > legacyVersionLimit {
		return 0, 0, fmt.Errorf("%w: 0x%08X", ErrInvalidVersion, id)
	}
	return id << 8, 0, nil
}

// RWVersion returns the version encoded in a library id.
func RWVersion(id uint32) (uint32, error) {
	version, _, err := UnpackLibraryID(id)
	return version, err
}

// FormatVersion renders a version such as 0x36003 as "3.6.0.3".
func FormatVersion(version uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", version>>16&0xF, version>>12&0xF, version>>8&0xF, version&0xFF)
}
