package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

const exportPrefix = "exports/"

// ObjectWriter is satisfied by *storage.Storage.
type ObjectWriter interface {
	PutBytes(ctx context.Context, key string, data []byte, contentType string) error
	URI(key string) string
}

// UserExportService writes JSON snapshots of the user table to object storage.
type UserExportService struct {
	users   *UserService
	objects ObjectWriter
	logger  *slog.Logger
	now     func() time.Time
}

func NewUserExportService(users *UserService, objects ObjectWriter, logger *slog.Logger) *UserExportService {
	return &UserExportService{users: users, objects: objects, logger: logger, now: time.Now}
}

// Export uploads every user as a JSON array and returns the object key and record count.
func (s *UserExportService) Export(ctx context.Context) (string, int, error) {
	if s.objects == nil {
		return "", 0, &Error{Kind: KindConfiguration, Message: "object storage is not configured"}
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return "", 0, err
	}

	data, err := json.Marshal(users)
	if err != nil {
		return "", 0, fmt.Errorf("encode users: %w", err)
	}

	key := exportPrefix + "users-" + s.now().UTC().Format("20060102T150405Z") + ".json"
	if err := s.objects.PutBytes(ctx, key, data, "application/json"); err != nil {
		return "", 0, fmt.Errorf("upload %s: %w", key, err)
	}

	s.logger.InfoContext(ctx, "users exported",
		slog.String("location", s.objects.URI(key)),
		slog.Int("count", len(users)),
	)
	return key, len(users), nil
}
