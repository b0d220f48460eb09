// Package storageurl resolves the URL shapes under which object-storage
// materials surface (native gs:// references, the public and console HTTPS
// hosts, and Firebase download URLs) into a canonical bucket/object pair.
package storageurl

import (
	"net/url"
	"strings"
)

// Location identifies an object in cloud storage. The zero Location means
// the original string was not an object-storage reference and should be
// fetched as a generic HTTP(S) URL.
type Location struct {
	Bucket string
	Object string
}

// IsZero reports whether the location does not point at object storage.
func (l Location) IsZero() bool {
	return l.Bucket == "" || l.Object == ""
}

// Resolve maps a raw URL to its storage Location. It performs no I/O; it is
// a pure string transformation over the four recognized URL shapes:
//
//	gs://bucket/path/to/object
//	https://storage.googleapis.com/bucket/path/to/object
//	https://storage.cloud.google.com/bucket/path/to/object
//	https://firebasestorage.googleapis.com/v0/b/<bucket>/o/<encoded object>
//
// Any other shape resolves to the zero Location.
func Resolve(rawURL string) Location {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Location{}
	}

	if u.Scheme == "gs" {
		return Location{
			Bucket: u.Host,
			Object: strings.TrimPrefix(u.EscapedPath(), "/"),
		}
	}

	path := strings.TrimPrefix(u.EscapedPath(), "/")
	var parts []string
	if path != "" {
		parts = strings.Split(path, "/")
	}

	switch u.Host {
	case "storage.googleapis.com", "storage.cloud.google.com":
		if len(parts) >= 2 {
			return Location{
				Bucket: parts[0],
				Object: strings.Join(parts[1:], "/"),
			}
		}
	case "firebasestorage.googleapis.com":
		// Fixed-position segments: v0 / b / <bucket> / o / <encoded object>.
		if len(parts) >= 5 && parts[0] == "v0" && parts[1] == "b" && parts[3] == "o" {
			object, err := url.PathUnescape(strings.Join(parts[4:], "/"))
			if err != nil {
				return Location{}
			}
			return Location{Bucket: parts[2], Object: object}
		}
	}

	return Location{}
}
