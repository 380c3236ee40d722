package version

import "fmt"

var (
	// Overridden at build time via -ldflags
	Version   = "v1.1.0"
	GitCommit = "HEAD"
)

type Info struct {
	Version   string `json:"version,omitempty"`
	GitCommit string `json:"gitCommit,omitempty"`
}

func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("%s (%s)", i.Version, i.GitCommit)
}
