package version

const (
	// Version is the current version of Podcatch
	Version = "0.1.0"
)

// UserAgent identifies podcatch in outgoing HTTP requests.
const UserAgent = "Podcatch/" + Version
