package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/crudapp/apiserver/internal/store"
	"github.com/crudapp/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) List(ctx context.Context) ([]types.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]types.User)
	return users, args.Error(1)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (types.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.User), args.Error(1)
}

func (m *mockUserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(types.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(types.User), args.Error(1)
}

func (m *mockUserRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type publishedMessage struct {
	channel string
	data    []byte
	attrs   map[string]string
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.messages = append(p.messages, publishedMessage{channel: channel, data: data, attrs: attrs})
	return "msg-1", nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUserService_Create(t *testing.T) {
	ctx := context.Background()
	repo := new(mockUserRepository)
	publisher := &fakePublisher{}
	svc := NewUserService(repo, discardLogger()).WithEvents(publisher, "user-events")

	repo.On("Create", ctx, types.User{Name: "Ada", Email: "ada@example.com"}).
		Return(types.User{ID: 1, Name: "Ada", Email: "ada@example.com"}, nil).Once()

	created, err := svc.Create(ctx, &types.User{ID: 42, Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	repo.AssertExpectations(t)

	require.Len(t, publisher.messages, 1)
	msg := publisher.messages[0]
	assert.Equal(t, "user-events", msg.channel)
	assert.Equal(t, types.UserCreated, msg.attrs["event_type"])

	var event types.UserEvent
	require.NoError(t, json.Unmarshal(msg.data, &event))
	assert.Equal(t, types.UserCreated, event.Type)
	assert.Equal(t, int64(1), event.User.ID)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, event.ID, msg.attrs["event_id"])
}

func TestUserService_CreateRejectsBlankFields(t *testing.T) {
	tests := []struct {
		name    string
		user    *types.User
		message string
	}{
		{name: "nil user", user: nil, message: "user cannot be nil"},
		{name: "blank name", user: &types.User{Name: "   ", Email: "a@b.c"}, message: "user name cannot be empty"},
		{name: "empty email", user: &types.User{Name: "Ada", Email: ""}, message: "user email cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockUserRepository)
			svc := NewUserService(repo, discardLogger())

			_, err := svc.Create(context.Background(), tt.user)
			require.Error(t, err)
			assert.True(t, IsKind(err, KindInvalidInput))
			assert.Equal(t, tt.message, err.Error())
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestUserService_CreateRepositoryError(t *testing.T) {
	ctx := context.Background()
	repo := new(mockUserRepository)
	publisher := &fakePublisher{}
	svc := NewUserService(repo, discardLogger()).WithEvents(publisher, "user-events")

	dbErr := errors.New("connection refused")
	repo.On("Create", ctx, mock.Anything).Return(types.User{}, dbErr).Once()

	_, err := svc.Create(ctx, &types.User{Name: "Ada", Email: "ada@example.com"})
	require.ErrorIs(t, err, dbErr)
	_, typed := KindOf(err)
	assert.False(t, typed)
	assert.Empty(t, publisher.messages)
}

func TestUserService_CreateIgnoresPublishFailure(t *testing.T) {
	ctx := context.Background()
	repo := new(mockUserRepository)
	svc := NewUserService(repo, discardLogger()).WithEvents(&fakePublisher{err: errors.New("broker down")}, "user-events")

	repo.On("Create", ctx, mock.Anything).Return(types.User{ID: 3, Name: "Ada", Email: "ada@example.com"}, nil).Once()

	created, err := svc.Create(ctx, &types.User{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), created.ID)
}

func TestUserService_List(t *testing.T) {
	ctx := context.Background()
	repo := new(mockUserRepository)
	svc := NewUserService(repo, discardLogger())

	repo.On("List", ctx).Return(nil, nil).Once()

	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestUserService_GetByID(t *testing.T) {
	ctx := context.Background()
	repo := new(mockUserRepository)
	svc := NewUserService(repo, discardLogger())

	repo.On("GetByID", ctx, int64(1)).Return(types.User{ID: 1, Name: "Ada", Email: "ada@example.com"}, nil).Once()
	repo.On("GetByID", ctx, int64(2)).Return(types.User{}, store.ErrNotFound).Once()

	user, found, err := svc.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Ada", user.Name)

	_, found, err = svc.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = svc.GetByID(ctx, 0)
	assert.True(t, IsKind(err, KindInvalidInput))
	repo.AssertExpectations(t)
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()
	repo := new(mockUserRepository)
	publisher := &fakePublisher{}
	svc := NewUserService(repo, discardLogger()).WithEvents(publisher, "user-events")

	repo.On("GetByID", ctx, int64(5)).Return(types.User{ID: 5, Name: "Old", Email: "old@example.com"}, nil).Once()
	repo.On("Update", ctx, types.User{ID: 5, Name: "New", Email: "new@example.com"}).
		Return(types.User{ID: 5, Name: "New", Email: "new@example.com"}, nil).Once()

	updated, err := svc.Update(ctx, 5, &types.User{ID: 99, Name: "New", Email: "new@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), updated.ID)
	assert.Equal(t, "New", updated.Name)
	repo.AssertExpectations(t)

	require.Len(t, publisher.messages, 1)
	assert.Equal(t, types.UserUpdated, publisher.messages[0].attrs["event_type"])
}

func TestUserService_UpdateNotFound(t *testing.T) {
	ctx := context.Background()
	repo := new(mockUserRepository)
	publisher := &fakePublisher{}
	svc := NewUserService(repo, discardLogger()).WithEvents(publisher, "user-events")

	repo.On("GetByID", ctx, int64(7)).Return(types.User{}, store.ErrNotFound).Once()

	_, err := svc.Update(ctx, 7, &types.User{Name: "New", Email: "new@example.com"})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))
	assert.Contains(t, err.Error(), "user not found with id 7")
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	assert.Empty(t, publisher.messages)
}

func TestUserService_UpdateValidatesBeforeLookup(t *testing.T) {
	repo := new(mockUserRepository)
	svc := NewUserService(repo, discardLogger())

	_, err := svc.Update(context.Background(), 7, &types.User{Name: "", Email: "x@example.com"})
	assert.True(t, IsKind(err, KindInvalidInput))
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestUserService_Delete(t *testing.T) {
	ctx := context.Background()
	repo := new(mockUserRepository)
	publisher := &fakePublisher{}
	svc := NewUserService(repo, discardLogger()).WithEvents(publisher, "user-events")

	repo.On("Exists", ctx, int64(4)).Return(true, nil).Once()
	repo.On("Delete", ctx, int64(4)).Return(nil).Once()
	repo.On("Exists", ctx, int64(8)).Return(false, nil).Once()

	require.NoError(t, svc.Delete(ctx, 4))

	err := svc.Delete(ctx, 8)
	assert.True(t, IsKind(err, KindNotFound))
	assert.Equal(t, "user not found with id 8", err.Error())

	repo.AssertExpectations(t)
	repo.AssertNumberOfCalls(t, "Delete", 1)
	require.Len(t, publisher.messages, 1)
	assert.Equal(t, types.UserDeleted, publisher.messages[0].attrs["event_type"])
}
