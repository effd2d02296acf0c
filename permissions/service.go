package permissions

import (
	"context"

	"github.com/kbukum/backendkit/core"
	apperrors "github.com/kbukum/backendkit/errors"
	"github.com/kbukum/backendkit/logger"
)

var _ core.PermissionsService = (*Service)(nil)

// Config is the backend.permissions configuration section.
type Config struct {
	// Enabled turns on policy checks. When disabled every request is allowed.
	Enabled bool `mapstructure:"enabled"`

	// Policy maps principals to permission patterns. The "*" principal
	// applies to everyone.
	Policy map[string][]string `mapstructure:"policy"`
}

// Service authorizes requests against a Policy.
type Service struct {
	policy Policy
	log    *logger.Logger
}

// New creates a service that consults policy.
func New(policy Policy, log *logger.Logger) *Service {
	return &Service{policy: policy, log: log.WithComponent("permissions")}
}

// NewFromConfig builds the service described by cfg.
func NewFromConfig(cfg Config, log *logger.Logger) *Service {
	if !cfg.Enabled {
		return New(AllowAll, log)
	}
	return New(NewMapPolicy(cfg.Policy), log)
}

// Authorize returns one decision per request, in request order.
func (s *Service) Authorize(ctx context.Context, requests []core.AuthorizeRequest) ([]core.AuthorizeDecision, error) {
	decisions := make([]core.AuthorizeDecision, len(requests))
	for i, req := range requests {
		if req.Permission == "" {
			return nil, apperrors.MissingField("permission")
		}
		decisions[i] = s.policy.Decide(req.Principal, req.Permission)
		if decisions[i] == core.DecisionDeny {
			s.log.WithContext(ctx).Debug("Permission denied", map[string]interface{}{
				"principal":  req.Principal,
				"permission": req.Permission,
			})
		}
	}
	return decisions, nil
}
