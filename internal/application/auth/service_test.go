package auth

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/portal-auth/internal/application/whitelist"
	"github.com/portal-auth/internal/domain"
	"github.com/portal-auth/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockCodeStore struct{ mock.Mock }

func (m *mockCodeStore) Put(ctx context.Context, c *domain.VerificationCode) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockCodeStore) FindLatestUnused(ctx context.Context, email, code string) (*domain.VerificationCode, error) {
	args := m.Called(ctx, email, code)
	if c, _ := args.Get(0).(*domain.VerificationCode); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockCodeStore) MarkUsed(ctx context.Context, c *domain.VerificationCode, usedAt time.Time) error {
	return m.Called(ctx, c, usedAt).Error(0)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

// --- builder ---

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newService(cs CodeStore, ss SessionStore, ml Mailer) Service {
	return NewService(ServiceDeps{
		Guard:       whitelist.NewGuard([]string{"alice@x.com"}),
		CodeRepo:    cs,
		SessionRepo: ss,
		Mailer:      ml,
		AppName:     "Portal",
		Now:         func() time.Time { return fixedNow },
	})
}

func storedCode() *domain.VerificationCode {
	return &domain.VerificationCode{
		CodeID:    "01HCODE",
		Email:     "alice@x.com",
		Code:      "12345",
		CreatedAt: fixedNow.Add(-time.Minute),
		ExpiresAt: fixedNow.Add(9 * time.Minute),
	}
}

// --- SendCode ---

func TestSendCode_NotWhitelisted_NoRowCreated(t *testing.T) {
	cs, ml := &mockCodeStore{}, &mockMailer{}

	_, err := newService(cs, nil, ml).SendCode(context.Background(), "mallory@x.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	cs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	ml.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendCode_Malformed(t *testing.T) {
	cs := &mockCodeStore{}

	_, err := newService(cs, nil, nil).SendCode(context.Background(), "not-an-email")

	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	cs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestSendCode_StoresCodeAndMails(t *testing.T) {
	cs, ml := &mockCodeStore{}, &mockMailer{}
	var stored *domain.VerificationCode
	cs.On("Put", mock.Anything, mock.AnythingOfType("*domain.VerificationCode")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.VerificationCode) }).
		Return(nil)
	ml.On("SendEmail", mock.Anything, "alice@x.com", "Your Portal sign-in code", mock.Anything).Return(nil)

	res, err := newService(cs, nil, ml).SendCode(context.Background(), "  Alice@X.com ")

	require.NoError(t, err)
	assert.True(t, res.Delivered)
	require.NotNil(t, stored)
	assert.Equal(t, "alice@x.com", stored.Email)
	assert.False(t, stored.Used)
	assert.Nil(t, stored.UsedAt)
	assert.Equal(t, fixedNow, stored.CreatedAt)
	assert.Equal(t, fixedNow.Add(10*time.Minute), stored.ExpiresAt)
	assert.NotEmpty(t, stored.CodeID)

	n, err := strconv.Atoi(stored.Code)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 10000)
	assert.LessOrEqual(t, n, 99999)

	body := ml.Calls[0].Arguments.String(3)
	assert.Contains(t, body, stored.Code)
	assert.Contains(t, body, "10 minutes")
}

func TestSendCode_MailFailure_StillIssued(t *testing.T) {
	cs, ml := &mockCodeStore{}, &mockMailer{}
	cs.On("Put", mock.Anything, mock.Anything).Return(nil)
	ml.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	res, err := newService(cs, nil, ml).SendCode(context.Background(), "alice@x.com")

	require.NoError(t, err)
	assert.False(t, res.Delivered)
}

func TestSendCode_StoreFailure(t *testing.T) {
	cs, ml := &mockCodeStore{}, &mockMailer{}
	cs.On("Put", mock.Anything, mock.Anything).Return(errors.New("dynamo unavailable"))

	_, err := newService(cs, nil, ml).SendCode(context.Background(), "alice@x.com")

	require.Error(t, err)
	assert.ErrorContains(t, err, "store code")
	ml.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- VerifyCode ---

func TestVerifyCode_BadShape(t *testing.T) {
	cs := &mockCodeStore{}
	svc := newService(cs, nil, nil)

	for _, c := range []string{"", "1234", "123456", "abcde"} {
		_, err := svc.VerifyCode(context.Background(), "alice@x.com", c)
		assert.True(t, errors.Is(err, domain.ErrBadRequest), "code %q", c)
	}
	_, err := svc.VerifyCode(context.Background(), "   ", "12345")
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	cs.AssertNotCalled(t, "FindLatestUnused", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyCode_NotFound(t *testing.T) {
	cs := &mockCodeStore{}
	cs.On("FindLatestUnused", mock.Anything, "alice@x.com", "12345").Return(nil, domain.ErrNotFound)

	_, err := newService(cs, nil, nil).VerifyCode(context.Background(), "alice@x.com", "12345")

	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestVerifyCode_Expired_MarksUsed(t *testing.T) {
	cs, ss := &mockCodeStore{}, &mockSessionStore{}
	vc := storedCode()
	vc.ExpiresAt = fixedNow.Add(-time.Second)
	cs.On("FindLatestUnused", mock.Anything, "alice@x.com", "12345").Return(vc, nil)
	cs.On("MarkUsed", mock.Anything, vc, fixedNow).Return(nil)

	_, err := newService(cs, ss, nil).VerifyCode(context.Background(), "alice@x.com", "12345")

	assert.ErrorIs(t, err, ErrCodeExpired)
	cs.AssertCalled(t, "MarkUsed", mock.Anything, vc, fixedNow)
	ss.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestVerifyCode_Success_CreatesSession(t *testing.T) {
	cs, ss := &mockCodeStore{}, &mockSessionStore{}
	vc := storedCode()
	cs.On("FindLatestUnused", mock.Anything, "alice@x.com", "12345").Return(vc, nil)
	cs.On("MarkUsed", mock.Anything, vc, fixedNow).Return(nil)
	var sess *domain.Session
	ss.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).
		Run(func(args mock.Arguments) { sess = args.Get(1).(*domain.Session) }).
		Return(nil)

	res, err := newService(cs, ss, nil).VerifyCode(context.Background(), " ALICE@x.com", "12345")

	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Len(t, res.SessionID, 64)
	assert.Equal(t, sess.SessionID, res.SessionID)
	assert.Equal(t, "alice@x.com", sess.Email)
	assert.Equal(t, fixedNow.Add(24*time.Hour), res.ExpiresAt)
	assert.Equal(t, fixedNow, sess.LastAccessedAt)
}

func TestVerifyCode_LostRace_Invalid(t *testing.T) {
	cs, ss := &mockCodeStore{}, &mockSessionStore{}
	vc := storedCode()
	cs.On("FindLatestUnused", mock.Anything, "alice@x.com", "12345").Return(vc, nil)
	cs.On("MarkUsed", mock.Anything, vc, fixedNow).Return(domain.ErrConflict)

	_, err := newService(cs, ss, nil).VerifyCode(context.Background(), "alice@x.com", "12345")

	assert.ErrorIs(t, err, ErrInvalidCode)
	ss.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestVerifyCode_MarkUsedFailure_NoSession(t *testing.T) {
	cs, ss := &mockCodeStore{}, &mockSessionStore{}
	vc := storedCode()
	cs.On("FindLatestUnused", mock.Anything, mock.Anything, mock.Anything).Return(vc, nil)
	cs.On("MarkUsed", mock.Anything, vc, fixedNow).Return(errors.New("timeout"))

	res, err := newService(cs, ss, nil).VerifyCode(context.Background(), "alice@x.com", "12345")

	require.Error(t, err)
	assert.Nil(t, res)
	assert.False(t, errors.Is(err, domain.ErrUnauthorized))
	ss.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestVerifyCode_SessionInsertFailure_NoSessionID(t *testing.T) {
	cs, ss := &mockCodeStore{}, &mockSessionStore{}
	vc := storedCode()
	cs.On("FindLatestUnused", mock.Anything, mock.Anything, mock.Anything).Return(vc, nil)
	cs.On("MarkUsed", mock.Anything, vc, fixedNow).Return(nil)
	ss.On("Put", mock.Anything, mock.Anything).Return(errors.New("throttled"))

	res, err := newService(cs, ss, nil).VerifyCode(context.Background(), "alice@x.com", "12345")

	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorContains(t, err, "create session")
}

// --- against the in-memory store ---

type captureMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (c *captureMailer) SendEmail(_ context.Context, to, _, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[to] = body
	return nil
}

func newMemoryService(now func() time.Time) (Service, *memory.CodeRepo, *memory.SessionRepo) {
	codes, sessions := memory.NewCodeRepo(), memory.NewSessionRepo()
	svc := NewService(ServiceDeps{
		Guard:       whitelist.NewGuard([]string{"alice@x.com"}),
		CodeRepo:    codes,
		SessionRepo: sessions,
		Mailer:      &captureMailer{codes: map[string]string{}},
		Now:         now,
	})
	return svc, codes, sessions
}

func issue(t *testing.T, svc Service, codes *memory.CodeRepo) string {
	t.Helper()
	_, err := svc.SendCode(context.Background(), "alice@x.com")
	require.NoError(t, err)
	all := codes.All()
	require.NotEmpty(t, all)
	return all[len(all)-1].Code
}

func TestVerifyCode_SingleUse(t *testing.T) {
	svc, codes, sessions := newMemoryService(nil)
	c := issue(t, svc, codes)

	_, err := svc.VerifyCode(context.Background(), "alice@x.com", c)
	require.NoError(t, err)
	_, err = svc.VerifyCode(context.Background(), "alice@x.com", c)

	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.Equal(t, 1, sessions.Len())
}

func TestVerifyCode_ExpiredThenNeverSucceeds(t *testing.T) {
	now := fixedNow
	svc, codes, sessions := newMemoryService(func() time.Time { return now })
	c := issue(t, svc, codes)

	now = fixedNow.Add(11 * time.Minute)
	_, err := svc.VerifyCode(context.Background(), "alice@x.com", c)
	assert.ErrorIs(t, err, ErrCodeExpired)
	assert.True(t, codes.All()[0].Used)

	_, err = svc.VerifyCode(context.Background(), "alice@x.com", c)
	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.Equal(t, 0, sessions.Len())
}

func TestVerifyCode_ConcurrentRedemption_OneSession(t *testing.T) {
	svc, codes, sessions := newMemoryService(nil)
	c := issue(t, svc, codes)

	const racers = 16
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.VerifyCode(context.Background(), "alice@x.com", c)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidCode)
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, sessions.Len())
}
