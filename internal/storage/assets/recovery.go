package assets

import "regexp"

// storedNamePattern matches the stored-name convention:
// a 36-character token, an underscore, then the captured display name.
var storedNamePattern = regexp.MustCompile(`^[0-9a-fA-F-]{36}_(.+)$`)

// RecoverDisplayName reconstructs a human-readable name from a stored name.
//
// Best effort and lossy: characters substituted at upload time are not
// restored, and a stored name that does not follow the convention is
// returned unchanged. Used only when no index entry is available; it is
// never authoritative.
func RecoverDisplayName(storedName string) string {
	if m := storedNamePattern.FindStringSubmatch(storedName); m != nil {
		return m[1]
	}
	return storedName
}
