package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/crudapp/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectWriter struct {
	key         string
	data        []byte
	contentType string
	err         error
}

func (f *fakeObjectWriter) PutBytes(_ context.Context, key string, data []byte, contentType string) error {
	if f.err != nil {
		return f.err
	}
	f.key, f.data, f.contentType = key, data, contentType
	return nil
}

func (f *fakeObjectWriter) URI(key string) string { return "mem://bucket/" + key }

func TestUserExportService_Export(t *testing.T) {
	ctx := context.Background()
	repo := new(mockUserRepository)
	repo.On("List", ctx).Return([]types.User{
		{ID: 1, Name: "Ada", Email: "ada@example.com"},
		{ID: 2, Name: "Alan", Email: "alan@example.com"},
	}, nil).Once()

	objects := &fakeObjectWriter{}
	svc := NewUserExportService(NewUserService(repo, discardLogger()), objects, discardLogger())
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 30, 0, 0, time.FixedZone("X", 3600)) }

	key, count, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, "exports/users-20240601T113000Z.json", key)
	assert.Equal(t, 2, count)
	assert.Equal(t, key, objects.key)
	assert.Equal(t, "application/json", objects.contentType)

	var users []types.User
	require.NoError(t, json.Unmarshal(objects.data, &users))
	assert.Len(t, users, 2)
}

func TestUserExportService_EmptyTableWritesEmptyArray(t *testing.T) {
	ctx := context.Background()
	repo := new(mockUserRepository)
	repo.On("List", ctx).Return([]types.User{}, nil).Once()

	objects := &fakeObjectWriter{}
	svc := NewUserExportService(NewUserService(repo, discardLogger()), objects, discardLogger())

	_, count, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.JSONEq(t, `[]`, string(objects.data))
}

func TestUserExportService_Errors(t *testing.T) {
	ctx := context.Background()

	svc := NewUserExportService(NewUserService(new(mockUserRepository), discardLogger()), nil, discardLogger())
	_, _, err := svc.Export(ctx)
	assert.True(t, IsKind(err, KindConfiguration))

	repo := new(mockUserRepository)
	repo.On("List", ctx).Return([]types.User{}, nil).Once()
	uploadErr := errors.New("bucket missing")
	svc = NewUserExportService(NewUserService(repo, discardLogger()), &fakeObjectWriter{err: uploadErr}, discardLogger())
	_, _, err = svc.Export(ctx)
	assert.ErrorIs(t, err, uploadErr)
}
