package health

import (
	"os"
	"time"
)

const Version = "1.0.0"

// Service encapsulates health-related checks.
type Service struct {
	templatesDir string
	now          func() time.Time
}

// NewService constructs a health service that also reports whether the
// template directory is reachable.
func NewService(templatesDir string) *Service {
	return &Service{templatesDir: templatesDir, now: time.Now}
}

// Status is the health payload.
type Status struct {
	Status    string          `json:"status"`
	Timestamp string          `json:"timestamp"`
	Version   string          `json:"version"`
	Services  map[string]bool `json:"services"`
}

func (s *Service) Status() Status {
	info, err := os.Stat(s.templatesDir)
	return Status{
		Status:    "healthy",
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Version:   Version,
		Services: map[string]bool{
			"api":       true,
			"templates": err == nil && info.IsDir(),
		},
	}
}
