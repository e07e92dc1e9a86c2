// Package journal validates client input and coordinates the repositories,
// the lookup resolver and the integrity manager for every journal operation.
package journal

import (
	"errors"
	"fmt"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"droscher.com/BeanJournal/pkg/integrity"
	"droscher.com/BeanJournal/pkg/lookup"
	"droscher.com/BeanJournal/pkg/repository"
	"droscher.com/BeanJournal/pkg/storage"
)

var (
	ErrNotFound   = repository.ErrNotFound
	ErrValidation = errors.New("validation failed")
)

// ValidationError carries every reason a request was rejected. Its message
// joins the reasons with "; ".
type ValidationError struct {
	cause error
}

func newValidationError(reasons ...string) *ValidationError {
	var cause error
	for _, reason := range reasons {
		cause = multierr.Append(cause, errors.New(reason))
	}

	return &ValidationError{cause: cause}
}

func (e *ValidationError) Error() string {
	return e.cause.Error()
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.cause}
}

func (e *ValidationError) Reasons() []string {
	errs := multierr.Errors(e.cause)
	reasons := make([]string, 0, len(errs))

	for _, err := range errs {
		reasons = append(reasons, err.Error())
	}

	return reasons
}

// asValidationError returns nil when err carries no reasons.
func asValidationError(err error) error {
	if err == nil {
		return nil
	}

	return &ValidationError{cause: err}
}

type Service struct {
	repo      *repository.Repository
	resolver  *lookup.Resolver
	integrity *integrity.Manager
	validate  *validator.Validate
	trans     ut.Translator
	clock     storage.Clock
	logger    *zap.Logger
}

type Option func(*Service)

func WithClock(clock storage.Clock) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

func New(repo *repository.Repository, logger *zap.Logger, opts ...Option) (*Service, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to build validator: %w", err)
	}

	service := &Service{
		repo:      repo,
		resolver:  lookup.NewResolver(repo, logger),
		integrity: integrity.NewManager(repo, logger),
		validate:  validate,
		trans:     trans,
		clock:     storage.SystemClock,
		logger:    logger,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

func notFound(what string, id int) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, what, id)
}
