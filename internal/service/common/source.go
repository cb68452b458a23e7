//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"os/user"

	"github.com/oshokin/people-detector/internal/domain/detector"
)

// DetectSource gathers host and user information identifying this caller.
func DetectSource() (*detector.Source, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &detector.Source{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}
