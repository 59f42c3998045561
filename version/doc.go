// Package version carries the build version of the connector.
//
// Version, git commit, branch and build time are set at compile time via
// -ldflags and fall back to the VCS stamps in the binary's build info:
//
//	go build -ldflags "-X github.com/kbukum/apifykit/version.Version=1.0.0"
//
// UserAgent derives the User-Agent sent with every Apify API request.
package version
