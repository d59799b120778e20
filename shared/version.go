package shared

// Version information for the sharedptr library.
const (
	// Version is the current version of the sharedptr library.
	Version = "0.1.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 1

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// Info provides runtime information about the library.
type Info struct {
	// Version is the library version string.
	Version string

	// Counting describes the reference-counting mechanism.
	Counting string

	// Tracking indicates whether adoption tracking is currently on.
	Tracking bool
}

// GetInfo returns information about the sharedptr runtime.
//
// Example:
//
//	info := shared.GetInfo()
//	fmt.Printf("sharedptr %s (%s)\n", info.Version, info.Counting)
func GetInfo() Info {
	return Info{
		Version:  Version,
		Counting: "atomic strong/weak control block",
		Tracking: Tracking(),
	}
}
