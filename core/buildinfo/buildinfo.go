package buildinfo

// These variables are set via -ldflags at build time:
//
//	-X 'github.com/m3rciful/scholarbot/core/buildinfo.Version=v1.2.3'
//	-X 'github.com/m3rciful/scholarbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/scholarbot/core/buildinfo.Date=2025-08-30T12:00:00Z'
var (
	Version = "dev"
	Commit  = "local"
	Date    = ""
)

// String renders the build identity for the version command.
func String() string {
	s := Version + " (" + Commit
	if Date != "" {
		s += ", " + Date
	}
	return s + ")"
}
