package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/klwxsrx/edu-resource-client/internal/auth/infra/storage"
	"github.com/klwxsrx/edu-resource-client/internal/auth/session"
	sessionmock "github.com/klwxsrx/edu-resource-client/internal/auth/session/mock"
	"github.com/klwxsrx/edu-resource-client/pkg/event"
	"github.com/klwxsrx/edu-resource-client/pkg/log"
)

var alice = session.User{
	ID:       1,
	Username: "alice",
	Nickname: "Alice",
	Phone:    "123",
	Role:     session.RoleTeacher,
}

func newStore(storage session.Storage, dispatcher event.Dispatcher) *session.Store {
	if dispatcher == nil {
		dispatcher = event.NewDispatcher()
	}
	return session.NewStore(storage, dispatcher, log.NewStub())
}

func TestStore_Login_PersistsTokenAndUser(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	store := newStore(kv, nil)

	require.NoError(t, store.Login(ctx, alice, "t1"))

	assert.True(t, store.IsLoggedIn())
	assert.Equal(t, "t1", store.Token())
	assert.Equal(t, session.Session{IsLoggedIn: true, User: alice}, store.Session())

	tok, ok, err := kv.Get(ctx, session.TokenKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "t1", tok)

	userData, ok, err := kv.Get(ctx, session.UserKey)
	require.NoError(t, err)
	require.True(t, ok)

	var persisted session.User
	require.NoError(t, json.Unmarshal([]byte(userData), &persisted))
	assert.Equal(t, alice, persisted)
}

func TestStore_Login_ReturnsError(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		storage func(ctrl *gomock.Controller) session.Storage
		expect  func(t *testing.T, err error)
	}{
		{
			name:  "error_when_token_empty",
			token: "",
			storage: func(ctrl *gomock.Controller) session.Storage {
				return sessionmock.NewStorage(ctrl)
			},
			expect: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, session.ErrEmptyToken)
			},
		},
		{
			name:  "error_when_token_not_persisted",
			token: "t1",
			storage: func(ctrl *gomock.Controller) session.Storage {
				mock := sessionmock.NewStorage(ctrl)
				mock.EXPECT().Set(gomock.Any(), session.TokenKey, "t1").Return(errors.New("unexpected"))
				return mock
			},
			expect: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
		{
			name:  "error_when_user_not_persisted",
			token: "t1",
			storage: func(ctrl *gomock.Controller) session.Storage {
				mock := sessionmock.NewStorage(ctrl)
				mock.EXPECT().Set(gomock.Any(), session.TokenKey, "t1").Return(nil)
				mock.EXPECT().Set(gomock.Any(), session.UserKey, gomock.Any()).Return(errors.New("unexpected"))
				return mock
			},
			expect: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := newStore(tc.storage(ctrl), nil)
			tc.expect(t, store.Login(context.Background(), alice, tc.token))
			assert.False(t, store.IsLoggedIn())
			assert.Equal(t, session.Session{}, store.Session())
		})
	}
}

func TestStore_Logout_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	store := newStore(kv, nil)
	require.NoError(t, store.Login(ctx, alice, "t1"))

	for range 2 {
		require.NoError(t, store.Logout(ctx))
		assert.False(t, store.IsLoggedIn())
		assert.Empty(t, store.Token())
		assert.Equal(t, session.Session{}, store.Session())
	}

	_, ok, err := kv.Get(ctx, session.TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = kv.Get(ctx, session.UserKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Logout_DoesNotRaiseTermination(t *testing.T) {
	ctx := context.Background()
	dispatcher := event.NewDispatcher()
	var terminated atomic.Int32
	dispatcher.Subscribe(session.EventTypeSessionTerminated, func(context.Context, event.Event) error {
		terminated.Add(1)
		return nil
	})

	store := newStore(storage.NewMemory(), dispatcher)
	require.NoError(t, store.Login(ctx, alice, "t1"))
	require.NoError(t, store.Logout(ctx))
	assert.Zero(t, terminated.Load())
}

func TestStore_Expire_RaisesTerminationOnce(t *testing.T) {
	ctx := context.Background()
	dispatcher := event.NewDispatcher()

	var reasons []session.Reason
	var mutex sync.Mutex
	dispatcher.Subscribe(session.EventTypeSessionTerminated, event.NewTypedHandler(
		func(_ context.Context, evt session.EventSessionTerminated) error {
			mutex.Lock()
			defer mutex.Unlock()
			reasons = append(reasons, evt.Reason)
			return nil
		},
	))

	store := newStore(storage.NewMemory(), dispatcher)
	require.NoError(t, store.Login(ctx, alice, "t1"))

	const callers = 20
	var wg sync.WaitGroup
	wg.Add(callers)
	for range callers {
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Expire(ctx, session.ReasonTokenRejected))
		}()
	}
	wg.Wait()

	assert.Equal(t, []session.Reason{session.ReasonTokenRejected}, reasons)
	assert.False(t, store.IsLoggedIn())

	require.NoError(t, store.Expire(ctx, session.ReasonRefreshFailed))
	assert.Len(t, reasons, 1)
}

func TestStore_LoadFromStorage(t *testing.T) {
	aliceData, err := json.Marshal(alice)
	require.NoError(t, err)

	tests := []struct {
		name      string
		persisted map[string]string
		expect    func(t *testing.T, store *session.Store, kv session.Storage)
	}{
		{
			name:      "restores_session",
			persisted: map[string]string{session.TokenKey: "t1", session.UserKey: string(aliceData)},
			expect: func(t *testing.T, store *session.Store, _ session.Storage) {
				assert.True(t, store.IsLoggedIn())
				assert.Equal(t, "t1", store.Token())
				assert.Equal(t, alice, store.Session().User)
			},
		},
		{
			name:      "keeps_logged_out_when_user_missing",
			persisted: map[string]string{session.TokenKey: "t1"},
			expect: func(t *testing.T, store *session.Store, kv session.Storage) {
				assert.False(t, store.IsLoggedIn())
				_, ok, _ := kv.Get(context.Background(), session.TokenKey)
				assert.True(t, ok)
			},
		},
		{
			name:      "clears_corrupted_user",
			persisted: map[string]string{session.TokenKey: "t1", session.UserKey: "{not json"},
			expect: func(t *testing.T, store *session.Store, kv session.Storage) {
				assert.False(t, store.IsLoggedIn())
				assert.Empty(t, store.Token())

				_, ok, _ := kv.Get(context.Background(), session.TokenKey)
				assert.False(t, ok)
				_, ok, _ = kv.Get(context.Background(), session.UserKey)
				assert.False(t, ok)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			kv := storage.NewMemory()
			for key, value := range tc.persisted {
				require.NoError(t, kv.Set(ctx, key, value))
			}

			store := newStore(kv, nil)
			store.LoadFromStorage(ctx)
			tc.expect(t, store, kv)
		})
	}
}

func TestStore_LoadFromStorage_IgnoresStorageErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	kv := sessionmock.NewStorage(ctrl)
	kv.EXPECT().Get(gomock.Any(), session.TokenKey).Return("", false, errors.New("unexpected"))

	store := newStore(kv, nil)
	assert.NotPanics(t, func() { store.LoadFromStorage(context.Background()) })
	assert.False(t, store.IsLoggedIn())
}

func TestStore_RecoversFromCorruptedSessionFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

	store := newStore(storage.NewFile(path, log.NewStub()), nil)
	store.LoadFromStorage(ctx)
	assert.False(t, store.IsLoggedIn())

	require.NoError(t, store.Login(ctx, alice, "t1"))
	assert.Equal(t, "t1", store.Token())

	reopened := newStore(storage.NewFile(path, log.NewStub()), nil)
	reopened.LoadFromStorage(ctx)
	assert.Equal(t, session.Session{IsLoggedIn: true, User: alice}, reopened.Session())

	require.NoError(t, store.Logout(ctx))
	assert.False(t, store.IsLoggedIn())
}

func TestStore_UpdateProfile_MergesAndPersists(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	store := newStore(kv, nil)

	nickname := "Prof. Alice"
	avatar := "/uploads/a.png"
	assert.ErrorIs(t, store.UpdateProfile(ctx, session.ProfileUpdate{Nickname: &nickname}), session.ErrNotLoggedIn)

	require.NoError(t, store.Login(ctx, alice, "t1"))
	require.NoError(t, store.UpdateProfile(ctx, session.ProfileUpdate{Nickname: &nickname, Avatar: &avatar}))

	expected := alice
	expected.Nickname = nickname
	expected.Avatar = avatar
	assert.Equal(t, expected, store.Session().User)

	userData, _, err := kv.Get(ctx, session.UserKey)
	require.NoError(t, err)
	var persisted session.User
	require.NoError(t, json.Unmarshal([]byte(userData), &persisted))
	assert.Equal(t, expected, persisted)
}

func TestStore_SetToken(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	store := newStore(kv, nil)

	err := store.SetToken(ctx, "", "t2")
	assert.ErrorIs(t, err, session.ErrSessionChanged)
	assert.ErrorIs(t, err, session.ErrNotLoggedIn)

	require.NoError(t, store.Login(ctx, alice, "t1"))
	assert.ErrorIs(t, store.SetToken(ctx, "t1", ""), session.ErrEmptyToken)
	require.NoError(t, store.SetToken(ctx, "t1", "t2"))
	assert.Equal(t, "t2", store.Token())

	tok, _, err := kv.Get(ctx, session.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "t2", tok)
}

func TestStore_SetToken_KeepsNewerSession(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	store := newStore(kv, nil)
	bob := session.User{ID: 2, Username: "bob", Role: session.RoleStudent}

	require.NoError(t, store.Login(ctx, alice, "alice-token"))
	require.NoError(t, store.Logout(ctx))
	require.NoError(t, store.Login(ctx, bob, "bob-token"))

	assert.ErrorIs(t, store.SetToken(ctx, "alice-token", "alice-refreshed"), session.ErrSessionChanged)
	assert.Equal(t, "bob-token", store.Token())
	assert.Equal(t, bob, store.Session().User)

	tok, _, err := kv.Get(ctx, session.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "bob-token", tok)
}

func TestStore_ExpireToken(t *testing.T) {
	ctx := context.Background()
	dispatcher := event.NewDispatcher()
	var terminated atomic.Int32
	dispatcher.Subscribe(session.EventTypeSessionTerminated, func(context.Context, event.Event) error {
		terminated.Add(1)
		return nil
	})
	store := newStore(storage.NewMemory(), dispatcher)
	require.NoError(t, store.Login(ctx, alice, "t1"))

	assert.ErrorIs(t, store.ExpireToken(ctx, "t0", session.ReasonRefreshFailed), session.ErrSessionChanged)
	assert.True(t, store.IsLoggedIn())
	assert.Zero(t, terminated.Load())

	require.NoError(t, store.ExpireToken(ctx, "t1", session.ReasonRefreshFailed))
	assert.False(t, store.IsLoggedIn())
	assert.Equal(t, int32(1), terminated.Load())

	require.NoError(t, store.ExpireToken(ctx, "t1", session.ReasonRefreshFailed))
	assert.Equal(t, int32(1), terminated.Load())
}

func TestStore_RoleHelpers(t *testing.T) {
	tests := []struct {
		role      session.Role
		isAdmin   bool
		isTeacher bool
		isStudent bool
		canUpload bool
	}{
		{role: session.RoleStudent, isStudent: true},
		{role: session.RoleTeacher, isTeacher: true, canUpload: true},
		{role: session.RoleAdmin, isAdmin: true, canUpload: true},
	}

	for _, tc := range tests {
		t.Run(string(tc.role), func(t *testing.T) {
			store := newStore(storage.NewMemory(), nil)
			user := alice
			user.Role = tc.role
			require.NoError(t, store.Login(context.Background(), user, "t1"))

			assert.Equal(t, tc.isAdmin, store.IsAdmin())
			assert.Equal(t, tc.isTeacher, store.IsTeacher())
			assert.Equal(t, tc.isStudent, store.IsStudent())
			assert.Equal(t, tc.canUpload, store.CanUpload())
		})
	}
}

func TestLoginRedirectHandler(t *testing.T) {
	tests := []struct {
		name      string
		navigator func(ctrl *gomock.Controller) session.Navigator
	}{
		{
			name: "navigates_to_login",
			navigator: func(ctrl *gomock.Controller) session.Navigator {
				mock := sessionmock.NewNavigator(ctrl)
				mock.EXPECT().CurrentView().Return("/resources")
				mock.EXPECT().Navigate(gomock.Any(), "/login").Return(nil)
				return mock
			},
		},
		{
			name: "stays_on_login",
			navigator: func(ctrl *gomock.Controller) session.Navigator {
				mock := sessionmock.NewNavigator(ctrl)
				mock.EXPECT().CurrentView().Return("/login")
				return mock
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			handler := session.NewLoginRedirectHandler(tc.navigator(ctrl), "/login")
			require.NoError(t, handler(context.Background(), session.EventSessionTerminated{Reason: session.ReasonTokenRejected}))
		})
	}
}
