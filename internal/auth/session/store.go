package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/klwxsrx/edu-resource-client/pkg/event"
	"github.com/klwxsrx/edu-resource-client/pkg/log"
)

// Store holds the single session of the running client and mirrors it to Storage.
// Mutations are serialized and persisted before they return.
type Store struct {
	storage    Storage
	dispatcher event.Dispatcher
	logger     log.Logger

	mutex   sync.RWMutex
	session Session
	token   string
}

func NewStore(
	storage Storage,
	dispatcher event.Dispatcher,
	logger log.Logger,
) *Store {
	return &Store{
		storage:    storage,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (s *Store) Login(ctx context.Context, user User, token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	userData, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	err = s.storage.Set(ctx, TokenKey, token)
	if err != nil {
		return fmt.Errorf("persist token: %w", err)
	}

	err = s.storage.Set(ctx, UserKey, string(userData))
	if err != nil {
		return fmt.Errorf("persist user: %w", err)
	}

	s.session = Session{IsLoggedIn: true, User: user}
	s.token = token
	return nil
}

func (s *Store) Logout(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.clear(ctx)
}

// Expire logs the session out on behalf of the client itself.
// EventSessionTerminated is dispatched only by the call that actually ended a logged in session.
func (s *Store) Expire(ctx context.Context, reason Reason) error {
	return s.expire(ctx, reason, func(string) bool { return true })
}

// ExpireToken is Expire limited to the session that still holds token.
// It returns ErrSessionChanged and keeps the session otherwise.
func (s *Store) ExpireToken(ctx context.Context, token string, reason Reason) error {
	return s.expire(ctx, reason, func(current string) bool { return current == token })
}

// LoadFromStorage restores the persisted session, a corrupted record is removed.
func (s *Store) LoadFromStorage(ctx context.Context) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	token, tokenFound, err := s.storage.Get(ctx, TokenKey)
	if err != nil {
		s.logger.WithError(err).Warn(ctx, "failed to read persisted token")
		return
	}

	userData, userFound, err := s.storage.Get(ctx, UserKey)
	if err != nil {
		s.logger.WithError(err).Warn(ctx, "failed to read persisted user")
		return
	}

	if !tokenFound || !userFound || token == "" || userData == "" {
		s.logger.Debug(ctx, "no persisted session found")
		return
	}

	var user User
	err = json.Unmarshal([]byte(userData), &user)
	if err != nil {
		s.logger.WithError(err).Warn(ctx, "persisted user is corrupted, clearing session")
		err = s.storage.Delete(ctx, TokenKey, UserKey)
		if err != nil {
			s.logger.WithError(err).Error(ctx, "failed to clear corrupted session")
		}
		return
	}

	s.session = Session{IsLoggedIn: true, User: user}
	s.token = token
	s.logger.WithField("userID", user.ID).Debug(ctx, "session restored")
}

func (s *Store) UpdateProfile(ctx context.Context, update ProfileUpdate) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.session.IsLoggedIn {
		return ErrNotLoggedIn
	}

	user := s.session.User.apply(update)
	userData, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	err = s.storage.Set(ctx, UserKey, string(userData))
	if err != nil {
		return fmt.Errorf("persist user: %w", err)
	}

	s.session.User = user
	return nil
}

// SetToken replaces previous with next. It fails with ErrSessionChanged when the
// session was logged out or started again since previous was read.
func (s *Store) SetToken(ctx context.Context, previous, next string) error {
	if next == "" {
		return ErrEmptyToken
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.session.IsLoggedIn {
		return fmt.Errorf("%w: %w", ErrSessionChanged, ErrNotLoggedIn)
	}
	if s.token != previous {
		return ErrSessionChanged
	}

	err := s.storage.Set(ctx, TokenKey, next)
	if err != nil {
		return fmt.Errorf("persist token: %w", err)
	}

	s.token = next
	return nil
}

func (s *Store) Token() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.token
}

func (s *Store) Session() Session {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.session
}

func (s *Store) IsLoggedIn() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.session.IsLoggedIn && s.token != ""
}

func (s *Store) IsAdmin() bool {
	return s.hasRole(RoleAdmin)
}

func (s *Store) IsTeacher() bool {
	return s.hasRole(RoleTeacher)
}

func (s *Store) IsStudent() bool {
	return s.hasRole(RoleStudent)
}

func (s *Store) CanUpload() bool {
	return s.hasRole(RoleTeacher, RoleAdmin)
}

func (s *Store) hasRole(roles ...Role) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, role := range roles {
		if s.session.User.Role == role {
			return true
		}
	}

	return false
}

func (s *Store) expire(ctx context.Context, reason Reason, matches func(current string) bool) error {
	s.mutex.Lock()
	if s.session.IsLoggedIn && !matches(s.token) {
		s.mutex.Unlock()
		return ErrSessionChanged
	}

	wasLoggedIn := s.session.IsLoggedIn
	err := s.clear(ctx)
	s.mutex.Unlock()

	if !wasLoggedIn {
		return err
	}

	s.logger.WithField("reason", reason).Info(ctx, "session terminated")
	dispatchErr := s.dispatcher.Dispatch(ctx, EventSessionTerminated{
		EventID: uuid.New(),
		Reason:  reason,
	})
	if dispatchErr != nil {
		s.logger.WithError(dispatchErr).Error(ctx, "failed to handle session termination")
	}

	return err
}

func (s *Store) clear(ctx context.Context) error {
	s.session = Session{}
	s.token = ""

	err := s.storage.Delete(ctx, TokenKey, UserKey)
	if err != nil {
		return fmt.Errorf("delete persisted session: %w", err)
	}

	return nil
}
