package otpflow

import (
	"context"
	"sync"
	"time"

	"github.com/tayyabfareed009/newswatch/internal/domain"
	"github.com/tayyabfareed009/newswatch/internal/gateway"
)

type fakeTicker struct {
	c chan time.Time
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }
func (f *fakeTicker) Stop()               {}

// manualClock hands out tickers that only fire when the test says so.
type manualClock struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (m *manualClock) NewTicker(time.Duration) Ticker {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &fakeTicker{c: make(chan time.Time)}
	m.tickers = append(m.tickers, t)
	return t
}

// Fire delivers n pulses to the most recent ticker. The receiving goroutine must be running.
func (m *manualClock) Fire(n int) {
	m.mu.Lock()
	t := m.tickers[len(m.tickers)-1]
	m.mu.Unlock()
	for i := 0; i < n; i++ {
		t.c <- time.Now()
	}
}

func (m *manualClock) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickers)
}

type fakeGateway struct {
	mu sync.Mutex

	sendCalls     int
	verifyCalls   int
	finalizeCalls int
	resetCalls    int

	sendErr     error
	verifyErr   error
	finalizeErr error
	resetErr    error

	devCode      string
	verifyResult gateway.VerifyResult
	session      domain.Session

	lastEmail       string
	lastPurpose     domain.Purpose
	lastCode        string
	lastReg         domain.PendingRegistration
	lastNewPassword string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		verifyResult: gateway.VerifyResult{RequiresFinalization: true},
		session:      domain.Session{Token: "abc", User: domain.User{ID: 7, Name: "A", Email: "user@test.com"}},
	}
}

func (f *fakeGateway) SendCode(_ context.Context, email string, purpose domain.Purpose) (gateway.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls++
	f.lastEmail, f.lastPurpose = email, purpose
	if f.sendErr != nil {
		return gateway.SendResult{}, f.sendErr
	}
	return gateway.SendResult{DevCode: f.devCode}, nil
}

func (f *fakeGateway) VerifyCode(_ context.Context, email, code string, purpose domain.Purpose) (gateway.VerifyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls++
	f.lastEmail, f.lastCode, f.lastPurpose = email, code, purpose
	if f.verifyErr != nil {
		return gateway.VerifyResult{}, f.verifyErr
	}
	return f.verifyResult, nil
}

func (f *fakeGateway) Finalize(_ context.Context, reg domain.PendingRegistration) (domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finalizeCalls++
	f.lastReg = reg
	if f.finalizeErr != nil {
		return domain.Session{}, f.finalizeErr
	}
	return f.session, nil
}

func (f *fakeGateway) ResetPassword(_ context.Context, email, code, newPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetCalls++
	f.lastEmail, f.lastCode, f.lastNewPassword = email, code, newPassword
	return f.resetErr
}

func (f *fakeGateway) Login(context.Context, string, string) (domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session, nil
}

func (f *fakeGateway) calls() (send, verify, finalize, reset int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sendCalls, f.verifyCalls, f.finalizeCalls, f.resetCalls
}
