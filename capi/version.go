package capi

// Interface version. Major changes break existing callers, minor changes
// only add calls and patch changes are internal.
const (
	VersionMajor = 0
	VersionMinor = 3
	VersionPatch = 0
)

// GetVersion returns the interface version.
func GetVersion() (major, minor, patch uint32) {
	return VersionMajor, VersionMinor, VersionPatch
}
