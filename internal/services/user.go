package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/crudapp/apiserver/internal/mq"
	"github.com/crudapp/apiserver/internal/store"
	"github.com/crudapp/apiserver/types"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	List(ctx context.Context) ([]types.User, error)
	GetByID(ctx context.Context, id int64) (types.User, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id int64) error
}

// EventPublisher is satisfied by *mq.MQ.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// userFields holds trimmed copies of the fields that must not be blank.
type userFields struct {
	Name  string `validate:"required"`
	Email string `validate:"required"`
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo      UserRepository
	validate  *validator.Validate
	logger    *slog.Logger
	publisher EventPublisher
	channel   string
	now       func() time.Time
}

func NewUserService(repo UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		repo:     repo,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// WithEvents enables lifecycle event publishing on the given channel.
func (s *UserService) WithEvents(publisher EventPublisher, channel string) *UserService {
	s.publisher = publisher
	s.channel = channel
	return s
}

func (s *UserService) Create(ctx context.Context, user *types.User) (types.User, error) {
	if user == nil {
		return s.rejectInput(ctx, "create", "user cannot be nil")
	}
	if err := s.checkFields(ctx, "create", user); err != nil {
		return types.User{}, err
	}

	created, err := s.repo.Create(ctx, types.User{Name: user.Name, Email: user.Email})
	if err != nil {
		return types.User{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user created", slog.Int64("user_id", created.ID))
	s.publish(ctx, types.UserCreated, created)
	return created, nil
}

func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []types.User{}
	}
	s.logger.InfoContext(ctx, "users listed", slog.Int("count", len(users)))
	return users, nil
}

// GetByID returns the user and whether it exists. A missing user is not an error.
func (s *UserService) GetByID(ctx context.Context, id int64) (types.User, bool, error) {
	if id <= 0 {
		_, err := s.rejectInput(ctx, "get", "user id must be a positive integer")
		return types.User{}, false, err
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.WarnContext(ctx, "user not found", slog.Int64("user_id", id))
			return types.User{}, false, nil
		}
		return types.User{}, false, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, true, nil
}

// Update overwrites name and email of an existing user. The ID never changes.
func (s *UserService) Update(ctx context.Context, id int64, details *types.User) (types.User, error) {
	if id <= 0 {
		return s.rejectInput(ctx, "update", "user id must be a positive integer")
	}
	if details == nil {
		return s.rejectInput(ctx, "update", "user details cannot be nil")
	}
	if err := s.checkFields(ctx, "update", details); err != nil {
		return types.User{}, err
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, s.missing(ctx, "update", id, err)
		}
		return types.User{}, fmt.Errorf("load user %d: %w", id, err)
	}

	existing.Name = details.Name
	existing.Email = details.Email

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, s.missing(ctx, "update", id, err)
		}
		return types.User{}, fmt.Errorf("update user %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "user updated", slog.Int64("user_id", id))
	s.publish(ctx, types.UserUpdated, updated)
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		_, err := s.rejectInput(ctx, "delete", "user id must be a positive integer")
		return err
	}

	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check user %d: %w", id, err)
	}
	if !exists {
		return s.missing(ctx, "delete", id, nil)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.missing(ctx, "delete", id, err)
		}
		return fmt.Errorf("delete user %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "user deleted", slog.Int64("user_id", id))
	s.publish(ctx, types.UserDeleted, types.User{ID: id})
	return nil
}

func (s *UserService) checkFields(ctx context.Context, op string, user *types.User) error {
	fields := userFields{
		Name:  strings.TrimSpace(user.Name),
		Email: strings.TrimSpace(user.Email),
	}
	if err := s.validate.Struct(fields); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			_, err := s.rejectInput(ctx, op, fmt.Sprintf("user %s cannot be empty", strings.ToLower(fieldErrs[0].Field())))
			return err
		}
		return fmt.Errorf("validate user: %w", err)
	}
	return nil
}

func (s *UserService) rejectInput(ctx context.Context, op, message string) (types.User, error) {
	s.logger.WarnContext(ctx, "invalid user input", slog.String("op", op), slog.String("reason", message))
	return types.User{}, invalidInput(message)
}

func (s *UserService) missing(ctx context.Context, op string, id int64, cause error) error {
	s.logger.WarnContext(ctx, "user not found", slog.String("op", op), slog.Int64("user_id", id))
	return notFound(fmt.Sprintf("user not found with id %d", id), cause)
}

// publish emits a lifecycle event. Failures are logged and never returned.
func (s *UserService) publish(ctx context.Context, eventType string, user types.User) {
	if s.publisher == nil {
		return
	}

	event := types.UserEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		User:       user,
		OccurredAt: s.now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.WarnContext(ctx, "encode user event failed", slog.String("error", err.Error()))
		return
	}

	attrs := map[string]string{
		"event_type":       eventType,
		"event_id":         event.ID,
		mq.AttrContentType: "application/json",
	}
	if _, err := s.publisher.Publish(ctx, s.channel, data, attrs); err != nil {
		s.logger.WarnContext(ctx, "publish user event failed",
			slog.String("event_type", eventType),
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}
}
