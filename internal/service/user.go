package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"ridebook/internal/auth"
	"ridebook/internal/domain"
	"ridebook/internal/metrics"
	"ridebook/internal/redis"
	"ridebook/internal/repository"
)

// maxNameLength bounds display names, in runes.
const maxNameLength = 100

var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// UserService handles customer profiles.
type UserService struct {
	userRepo repository.UserRepository
	cache    redis.UserCacheInterface
	metrics  *metrics.Recorder
	now      func() time.Time
}

// NewUserService creates a new UserService. cache and recorder may be nil.
func NewUserService(userRepo repository.UserRepository, cache redis.UserCacheInterface, recorder *metrics.Recorder) *UserService {
	return &UserService{
		userRepo: userRepo,
		cache:    cache,
		metrics:  recorder,
		now:      time.Now,
	}
}

// CreateUserRequest contains the parameters for creating a user. An empty
// UID is taken from the caller's identity.
type CreateUserRequest struct {
	UID   string
	Phone string
	Name  string
}

// CreateUser registers the caller's profile.
func (s *UserService) CreateUser(ctx context.Context, caller *auth.Identity, req CreateUserRequest) (*domain.User, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}

	uid := strings.TrimSpace(req.UID)
	if uid == "" {
		uid = caller.UID
	} else if uid != caller.UID {
		return nil, fmt.Errorf("%w: uid does not match token subject", ErrForbidden)
	}

	phone := strings.TrimSpace(req.Phone)
	if err := validatePhone(phone); err != nil {
		return nil, err
	}
	if caller.Phone != "" && caller.Phone != phone {
		return nil, fmt.Errorf("%w: phone does not match token", ErrForbidden)
	}

	name := strings.TrimSpace(req.Name)
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, invalid("name", fmt.Sprintf("must be at most %d characters", maxNameLength))
	}

	user := &domain.User{
		UID:       uid,
		Phone:     phone,
		Name:      name,
		CreatedAt: s.now().UTC(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: user already exists", ErrConflict)
		}
		return nil, storeErr(err)
	}

	s.cacheUser(ctx, user)
	s.metrics.UserCreated()
	slog.InfoContext(ctx, "user created", "uid", user.UID)

	return user, nil
}

// GetUser looks up a profile by phone number.
func (s *UserService) GetUser(ctx context.Context, caller *auth.Identity, phone string) (*domain.User, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}

	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, invalid("phone", "is required")
	}

	if s.cache != nil {
		cached, err := s.cache.GetUser(ctx, phone)
		if err != nil {
			slog.WarnContext(ctx, "user cache read failed", "error", err)
		} else if cached != nil {
			return cached.User(), nil
		}
	}

	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, storeErr(err)
	}

	s.cacheUser(ctx, user)
	return user, nil
}

// UpdateName sets the display name on the caller's own profile.
func (s *UserService) UpdateName(ctx context.Context, caller *auth.Identity, phone, name string) (*domain.User, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, invalid("name", fmt.Sprintf("must be at most %d characters", maxNameLength))
	}

	user, err := s.userRepo.GetByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		return nil, storeErr(err)
	}
	if user.UID != caller.UID {
		return nil, fmt.Errorf("%w: profile belongs to another user", ErrForbidden)
	}

	if err := s.userRepo.UpdateName(ctx, user.UID, name); err != nil {
		return nil, storeErr(err)
	}
	user.Name = name

	if s.cache != nil {
		if err := s.cache.InvalidateUser(ctx, user.Phone); err != nil {
			slog.WarnContext(ctx, "user cache invalidation failed", "error", err)
		}
	}

	return user, nil
}

func (s *UserService) cacheUser(ctx context.Context, user *domain.User) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetUser(ctx, redis.NewCachedUser(user)); err != nil {
		slog.WarnContext(ctx, "user cache write failed", "error", err)
	}
}

func validatePhone(phone string) error {
	if phone == "" {
		return invalid("phone", "is required")
	}
	if !e164Pattern.MatchString(phone) {
		return invalid("phone", "must be in E.164 format")
	}
	return nil
}
