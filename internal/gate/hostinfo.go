package gate

import (
	"os"
	"os/user"
	"runtime"
)

// hostFacts collects identity facts about the local host.
func hostFacts(hostID string) map[string]string {
	facts := map[string]string{
		"host":     hostID,
		"platform": runtime.GOOS + "/" + runtime.GOARCH,
	}
	if u, err := user.Current(); err == nil {
		facts["user"] = u.Username
	}
	if home, err := os.UserHomeDir(); err == nil {
		facts["home"] = home
	}
	return facts
}
