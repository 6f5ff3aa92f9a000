package version

import "fmt"

// Set at build time with -ldflags "-X github.com/bnema/aconomy-watch/internal/version.Version=...".
var (
	Version = "dev"
	Commit  = ""
)

func String() string {
	if Commit == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
