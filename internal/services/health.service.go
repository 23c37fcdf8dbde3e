package services

// HealthCheck probes one dependency.
type HealthCheck func() error

type HealthService struct {
	checks []HealthCheck
}

func NewHealthService(checks ...HealthCheck) *HealthService {
	return &HealthService{checks: checks}
}

// Get returns the first failing dependency check, nil when all pass.
func (s *HealthService) Get() error {
	for _, check := range s.checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}
