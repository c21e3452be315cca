package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	devicedomain "push-relay/internal/device/domain"
	"push-relay/pkg/fcm"
)

// fakeRegistry is an in-memory DeviceRepository that records calls
type fakeRegistry struct {
	mu         sync.Mutex
	userTokens map[int64][]string
	active     []string
	failDelete map[string]error
	deleted    []string
	pageCalls  [][2]int

	inFlight    int
	maxInFlight int
	deleteGate  chan struct{}
}

func (f *fakeRegistry) Upsert(context.Context, *devicedomain.Device) (*devicedomain.Device, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRegistry) TokensForUser(_ context.Context, userID int64) ([]string, error) {
	return f.userTokens[userID], nil
}

func (f *fakeRegistry) ActiveTokensPage(_ context.Context, limit, offset int) ([]string, error) {
	f.mu.Lock()
	f.pageCalls = append(f.pageCalls, [2]int{limit, offset})
	f.mu.Unlock()
	if offset >= len(f.active) {
		return nil, nil
	}
	return f.active[offset:min(offset+limit, len(f.active))], nil
}

func (f *fakeRegistry) ActiveCount(context.Context) (int64, error) {
	return int64(len(f.active)), nil
}

func (f *fakeRegistry) DeleteByToken(_ context.Context, token string) error {
	f.mu.Lock()
	f.inFlight++
	f.maxInFlight = max(f.maxInFlight, f.inFlight)
	f.mu.Unlock()

	if f.deleteGate != nil {
		<-f.deleteGate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
	if err := f.failDelete[token]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, token)
	return nil
}

func (f *fakeRegistry) DeleteByIdentifiers(context.Context, string, string, int64, int64) (int64, error) {
	return 0, nil
}

// fakeSender answers per token from codes; tokens without a code succeed
type fakeSender struct {
	codes     map[string]string
	failCall  int // 1-based multicast call that errors, 0 for never
	sendErr   error
	calls     [][]string
	lastNotif fcm.NotificationData
}

func (s *fakeSender) Send(_ context.Context, token string, n fcm.NotificationData) (string, error) {
	s.lastNotif = n
	if s.sendErr != nil {
		return "", s.sendErr
	}
	return "msg-" + token, nil
}

func (s *fakeSender) SendMulticast(_ context.Context, tokens []string, n fcm.NotificationData) (*fcm.BatchResponse, error) {
	s.calls = append(s.calls, append([]string(nil), tokens...))
	s.lastNotif = n
	if s.failCall == len(s.calls) {
		return nil, errors.New("failed to send FCM multicast message: deadline exceeded")
	}

	resp := &fcm.BatchResponse{Responses: make([]fcm.SendResult, len(tokens))}
	for i, tok := range tokens {
		if code, ok := s.codes[tok]; ok {
			resp.FailureCount++
			resp.Responses[i] = fcm.SendResult{ErrorCode: code, Err: errors.New(code)}
			continue
		}
		resp.SuccessCount++
		resp.Responses[i] = fcm.SendResult{Success: true, MessageID: "msg-" + tok}
	}
	return resp, nil
}

func makeTokens(n int) []string {
	tokens := make([]string, n)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("tok-%04d", i)
	}
	return tokens
}
