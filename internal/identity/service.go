// Package identity verifies access tokens and owns account records,
// including the privacy flag the follow graph and visibility rules consult.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"bridges/internal/counter"
	id "bridges/pkg/domain"
	dErrors "bridges/pkg/domain-errors"
	"bridges/pkg/platform/sentinel"
	"bridges/pkg/requestcontext"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)

// CounterReader reads an identity's denormalized counters.
type CounterReader interface {
	Counts(ctx context.Context, target counter.Target) (counter.Counts, error)
}

// Service is the account side of the identity provider.
type Service struct {
	accounts Store
	counters CounterReader
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(accounts Store, counters CounterReader, opts ...Option) *Service {
	s := &Service{accounts: accounts, counters: counters, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account. Usernames are unique case-insensitively.
func (s *Service) Register(ctx context.Context, username string, private bool) (*Account, error) {
	if !usernamePattern.MatchString(username) {
		return nil, dErrors.New(dErrors.CodeValidation, "username must be 3-30 letters, digits or underscores")
	}
	account := &Account{
		ID:        id.NewUserID(),
		Username:  username,
		IsPrivate: private,
		CreatedAt: requestcontext.Now(ctx).UTC().Truncate(time.Microsecond),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "username already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}
	return account, nil
}

// Get returns the account or CodeNotFound.
func (s *Service) Get(ctx context.Context, userID id.UserID) (*Account, error) {
	account, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return account, nil
}

// IsPrivate reports the current privacy flag of userID.
func (s *Service) IsPrivate(ctx context.Context, userID id.UserID) (bool, error) {
	account, err := s.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return account.IsPrivate, nil
}

// Exists returns CodeNotFound when userID has no account.
func (s *Service) Exists(ctx context.Context, userID id.UserID) error {
	_, err := s.Get(ctx, userID)
	return err
}

// SetPrivacy flips the privacy flag. Existing edges keep their status; only
// follow requests made afterwards see the new value.
func (s *Service) SetPrivacy(ctx context.Context, userID id.UserID, private bool) (*Account, error) {
	account, err := s.accounts.SetPrivacy(ctx, userID, private)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update privacy")
	}
	s.logger.InfoContext(ctx, "privacy updated",
		"user_id", userID.String(),
		"is_private", private,
		"request_id", requestcontext.RequestID(ctx),
	)
	return account, nil
}

// Profile returns the account with its counters. A counter read failure
// degrades to zero counts rather than failing the lookup.
func (s *Service) Profile(ctx context.Context, userID id.UserID) (*Profile, error) {
	account, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := &Profile{
		ID:        account.ID,
		Username:  account.Username,
		IsPrivate: account.IsPrivate,
		CreatedAt: account.CreatedAt,
	}
	counts, err := s.counters.Counts(ctx, counter.UserTarget(userID))
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read profile counters",
			"user_id", userID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return profile, nil
	}
	profile.FollowersCount = counts[counter.FieldFollowers]
	profile.FollowingCount = counts[counter.FieldFollowing]
	profile.ContentCount = counts[counter.FieldContent]
	return profile, nil
}
