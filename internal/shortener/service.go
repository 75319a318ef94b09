package shortener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sundayezeilo/linkshortener/codegen"
	"github.com/sundayezeilo/linkshortener/internal/errx"
)

const (
	DefaultCodeLength  = 7
	MinCodeLength      = codegen.MinLength
	MaxCodeLength      = 32
	DefaultMaxAttempts = 5
)

var tracer = otel.Tracer("github.com/sundayezeilo/linkshortener/internal/shortener")

// ExhaustedError reports that every allocation attempt hit an existing code.
type ExhaustedError struct {
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("no unique short code after %d attempts", e.Attempts)
}

// Recorder observes service outcomes. Outcome labels are AllocationStatus names
// for successes and lower-cased errx kinds for failures.
type Recorder interface {
	AllocationFinished(outcome string)
	CodeCollision()
	ResolutionFinished(outcome string)
}

type noopRecorder struct{}

func (noopRecorder) AllocationFinished(string) {}
func (noopRecorder) CodeCollision()            {}
func (noopRecorder) ResolutionFinished(string) {}

// Service resolves short codes and allocates new ones. It holds no link state;
// every call is a fresh round trip to the Store.
type Service struct {
	store       Store
	generator   codegen.Generator
	codeLength  int
	maxAttempts int
	recorder    Recorder
	logger      *slog.Logger
}

// ServiceConfig holds optional settings for the service. Zero values select the
// defaults.
type ServiceConfig struct {
	Generator   codegen.Generator
	CodeLength  int
	MaxAttempts int
	Recorder    Recorder
	Logger      *slog.Logger
}

// NewService creates a new service instance.
func NewService(store Store, config *ServiceConfig) *Service {
	if config == nil {
		config = &ServiceConfig{}
	}

	gen := config.Generator
	if gen == nil {
		gen = codegen.NewBase62()
	}

	length := config.CodeLength
	if length < MinCodeLength || length > MaxCodeLength {
		length = DefaultCodeLength
	}

	attempts := config.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	recorder := config.Recorder
	if recorder == nil {
		recorder = noopRecorder{}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:       store,
		generator:   gen,
		codeLength:  length,
		maxAttempts: attempts,
		recorder:    recorder,
		logger:      logger,
	}
}

// MaxAttempts is the insert ceiling of one Allocate call.
func (s *Service) MaxAttempts() int { return s.maxAttempts }

// Allocate returns the short code for longURL, reusing an existing link when the
// URL was shortened before. New codes are inserted first and retried only on a
// code conflict reported by the store; the store's uniqueness constraint is the
// only arbiter, so concurrent callers never need a lock.
func (s *Service) Allocate(ctx context.Context, longURL string) (Allocation, error) {
	ctx, span := tracer.Start(ctx, "shortener.Allocate")
	defer span.End()

	alloc, err := s.allocate(ctx, longURL)

	outcome := outcomeOf(err)
	if err == nil {
		outcome = alloc.Status.String()
		span.SetAttributes(
			attribute.String("link.code", alloc.Link.Code),
			attribute.Int("link.attempts", alloc.Attempts),
		)
	}
	span.SetAttributes(attribute.String("link.outcome", outcome))
	endSpan(span, err)
	s.recorder.AllocationFinished(outcome)

	return alloc, err
}

func (s *Service) allocate(ctx context.Context, longURL string) (Allocation, error) {
	const op = "shortener.service.Allocate"

	if err := ValidateURL(longURL); err != nil {
		return Allocation{}, errx.E(op, errx.Invalid, err)
	}

	existing, err := s.store.FindByURL(ctx, longURL)
	if err == nil {
		return Allocation{Link: existing, Status: Reused}, nil
	}
	if !errx.Is(err, errx.NotFound) {
		return Allocation{}, storeFailure(op, err)
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := s.generator.Generate(s.codeLength)
		if err != nil {
			return Allocation{}, errx.E(op, errx.Internal, err)
		}

		link, err := s.store.TryInsert(ctx, code, longURL)
		switch {
		case err == nil:
			return Allocation{Link: link, Status: Created, Attempts: attempt}, nil

		case errors.Is(err, ErrURLTaken):
			// Another request stored the same URL between our lookup and insert.
			winner, err := s.store.FindByURL(ctx, longURL)
			if err != nil {
				return Allocation{}, storeFailure(op, err)
			}
			return Allocation{Link: winner, Status: Reused, Attempts: attempt}, nil

		case errx.Is(err, errx.Conflict):
			s.recorder.CodeCollision()
			s.logger.DebugContext(ctx, "short code collision",
				"code", code,
				"attempt", attempt,
				"max_attempts", s.maxAttempts,
			)

		default:
			return Allocation{}, storeFailure(op, err)
		}
	}

	return Allocation{}, errx.E(op, errx.Exhausted, &ExhaustedError{Attempts: s.maxAttempts})
}

// Lookup returns the link stored under code.
func (s *Service) Lookup(ctx context.Context, code string) (Link, error) {
	const op = "shortener.service.Lookup"

	code = strings.TrimSpace(code)
	if code == "" {
		return Link{}, errx.E(op, errx.Invalid, errors.New("short code cannot be empty"))
	}

	link, err := s.store.FindByCode(ctx, code)
	if err != nil {
		if errx.Is(err, errx.NotFound) {
			return Link{}, errx.Wrap(op, err)
		}
		return Link{}, storeFailure(op, err)
	}
	if link.LongURL == "" {
		return Link{}, errx.E(op, errx.Internal, fmt.Errorf("link %q has an empty url", code))
	}
	return link, nil
}

// Resolve returns the redirect target for code.
func (s *Service) Resolve(ctx context.Context, code string) (string, error) {
	ctx, span := tracer.Start(ctx, "shortener.Resolve",
		trace.WithAttributes(attribute.String("link.code", code)))
	defer span.End()

	link, err := s.Lookup(ctx, code)

	outcome := outcomeOf(err)
	if err == nil {
		outcome = "found"
	}
	span.SetAttributes(attribute.String("link.outcome", outcome))
	endSpan(span, err)
	s.recorder.ResolutionFinished(outcome)

	if err != nil {
		return "", errx.Wrap("shortener.service.Resolve", err)
	}
	return link.LongURL, nil
}

// storeFailure labels a store error for the caller. Errors a Store did not
// classify are treated as the store being unavailable.
func storeFailure(op string, err error) error {
	if errx.KindOf(err) == errx.Unknown {
		return errx.E(op, errx.Unavailable, err)
	}
	return errx.Wrap(op, err)
}

func outcomeOf(err error) string {
	if err == nil {
		return ""
	}
	return strings.ToLower(errx.KindOf(err).String())
}

func endSpan(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	switch errx.KindOf(err) {
	case errx.NotFound, errx.Invalid:
		// Expected outcomes, not faults.
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
