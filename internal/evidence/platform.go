// Package evidence defines the canonical record shape all platform connectors
// produce, plus the request and response envelopes of the collection API.
package evidence

import "fmt"

// Platform identifies one of the supported evidence sources.
type Platform string

const (
	PlatformOutlook     Platform = "outlook"
	PlatformOneDrive    Platform = "onedrive"
	PlatformGoogleDrive Platform = "google_drive"
	PlatformNextcloud   Platform = "nextcloud"
	PlatformEfundi      Platform = "efundi"
)

// AuthKind describes how a platform authenticates.
type AuthKind string

const (
	// AuthCookies means the connector replays captured browser session cookies.
	AuthCookies AuthKind = "cookies"
	// AuthCredential means the connector uses a stored credential bundle
	// (username/password/endpoint) from the vault.
	AuthCredential AuthKind = "credential"
)

// Descriptor holds display and auth metadata for one platform.
type Descriptor struct {
	ID                  Platform `json:"id"`
	Name                string   `json:"name"`
	AuthKind            AuthKind `json:"auth_method"`
	RequiresCredentials bool     `json:"requires_credentials"`
}

var descriptors = []Descriptor{
	{PlatformOutlook, "Microsoft Outlook", AuthCookies, false},
	{PlatformOneDrive, "OneDrive / SharePoint", AuthCookies, false},
	{PlatformGoogleDrive, "Google Drive", AuthCookies, false},
	{PlatformNextcloud, "Nextcloud", AuthCredential, true},
	{PlatformEfundi, "eFundi (Sakai LMS)", AuthCredential, true},
}

// Platforms returns descriptors for every supported platform.
func Platforms() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// ParsePlatform converts a string identifier into a Platform.
func ParsePlatform(s string) (Platform, error) {
	for _, d := range descriptors {
		if string(d.ID) == s {
			return d.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
}

// Auth returns the platform's authentication kind.
func (p Platform) Auth() AuthKind {
	for _, d := range descriptors {
		if d.ID == p {
			return d.AuthKind
		}
	}
	return AuthCookies
}

// Valid reports whether the platform is one of the supported identifiers.
func (p Platform) Valid() bool {
	_, err := ParsePlatform(string(p))
	return err == nil
}
