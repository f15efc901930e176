package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/inkpress/inkpress-go/internal/dependencies/mocks"
	"github.com/inkpress/inkpress-go/internal/storage/memory"
	"github.com/inkpress/inkpress-go/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = NewService(s.storage, s.clock, DefaultConfig(), testutil.NopLogger())
	s.ctx = context.Background()
}

// Register tests

func (s *ServiceSuite) TestRegisterSucceeds() {
	session, err := s.service.Register(s.ctx, "alice@example.com", "supersecret")
	s.Require().NoError(err)

	s.NotEmpty(session.Token)
	s.Equal("alice@example.com", session.User.Email)
	s.NotEmpty(session.User.ID)
}

func (s *ServiceSuite) TestRegisterHashesPassword() {
	_, err := s.service.Register(s.ctx, "alice@example.com", "supersecret")
	s.Require().NoError(err)

	account, err := s.storage.GetAccountByEmail(s.ctx, "alice@example.com")
	s.Require().NoError(err)
	s.NotEmpty(account.PasswordHash)
	s.NotEqual("supersecret", account.PasswordHash)
}

func (s *ServiceSuite) TestRegisterFailsOnDuplicateEmail() {
	first, err := s.service.Register(s.ctx, "alice@example.com", "supersecret")
	s.Require().NoError(err)

	_, err = s.service.Register(s.ctx, "alice@example.com", "different")
	s.ErrorIs(err, ErrDuplicateAccount)

	// The stored record is unchanged from the first registration
	account, err := s.storage.GetAccountByEmail(s.ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(first.User.ID, account.ID)
}

// Login tests

func (s *ServiceSuite) TestLoginSucceedsWithSameID() {
	registered, err := s.service.Register(s.ctx, "alice@example.com", "supersecret")
	s.Require().NoError(err)

	session, err := s.service.Login(s.ctx, "alice@example.com", "supersecret")
	s.Require().NoError(err)
	s.Equal(registered.User.ID, session.User.ID)
}

func (s *ServiceSuite) TestLoginFailsWithWrongPassword() {
	_, _ = s.service.Register(s.ctx, "alice@example.com", "supersecret")

	_, err := s.service.Login(s.ctx, "alice@example.com", "wrongpass")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginFailsWithUnknownEmail() {
	_, err := s.service.Login(s.ctx, "nobody@example.com", "supersecret")
	s.ErrorIs(err, ErrInvalidCredentials)
}

// ValidateSession tests

func (s *ServiceSuite) TestValidateSessionSucceeds() {
	session, _ := s.service.Register(s.ctx, "alice@example.com", "supersecret")

	validated, err := s.service.ValidateSession(s.ctx, session.Token)
	s.Require().NoError(err)
	s.Equal(session.User.ID, validated.User.ID)
}

func (s *ServiceSuite) TestValidateSessionFailsWithUnknownToken() {
	_, err := s.service.ValidateSession(s.ctx, "sess_unknown")
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestValidateSessionFailsWhenExpired() {
	session, _ := s.service.Register(s.ctx, "alice@example.com", "supersecret")

	s.clock.Advance(25 * time.Hour)

	_, err := s.service.ValidateSession(s.ctx, session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestSessionSurvivesServiceRestart() {
	session, _ := s.service.Register(s.ctx, "alice@example.com", "supersecret")

	// A fresh service over the same storage still accepts the token
	restarted := NewService(s.storage, s.clock, DefaultConfig(), testutil.NopLogger())
	validated, err := restarted.ValidateSession(s.ctx, session.Token)
	s.Require().NoError(err)
	s.Equal("alice@example.com", validated.User.Email)
}

// InvalidateSession tests

func (s *ServiceSuite) TestInvalidateSessionRemovesSession() {
	session, _ := s.service.Register(s.ctx, "alice@example.com", "supersecret")

	err := s.service.InvalidateSession(s.ctx, session.Token)
	s.Require().NoError(err)

	_, err = s.service.ValidateSession(s.ctx, session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestInvalidateSessionNoopForUnknownToken() {
	s.NoError(s.service.InvalidateSession(s.ctx, "sess_unknown"))
}

// GetUser tests

func (s *ServiceSuite) TestGetUserSucceeds() {
	session, _ := s.service.Register(s.ctx, "alice@example.com", "supersecret")

	user, err := s.service.GetUser(s.ctx, session.Token)
	s.Require().NoError(err)
	s.Equal("alice@example.com", user.Email)
}

func (s *ServiceSuite) TestGetUserFailsWithInvalidToken() {
	_, err := s.service.GetUser(s.ctx, "sess_unknown")
	s.ErrorIs(err, ErrInvalidSession)
}
