package middleware

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

type stubContext struct {
	tele.Context
	user  *tele.User
	msg   *tele.Message
	cb    *tele.Callback
	store map[string]any
}

func newStub(userID int64) *stubContext {
	return &stubContext{
		user:  &tele.User{ID: userID},
		msg:   &tele.Message{Text: "hi"},
		store: map[string]any{},
	}
}

func (s *stubContext) Sender() *tele.User            { return s.user }
func (s *stubContext) Chat() *tele.Chat              { return &tele.Chat{ID: s.user.ID} }
func (s *stubContext) Update() tele.Update           { return tele.Update{ID: 1, Message: s.msg, Callback: s.cb} }
func (s *stubContext) Get(key string) interface{}    { return s.store[key] }
func (s *stubContext) Set(key string, v interface{}) { s.store[key] = v }

func TestRateLimitSkipsBurstFromSameUser(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		OnLimited: func(tele.Context) error { limited++; return nil },
		Now:       func() time.Time { return now },
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })

	c := newStub(1)
	_ = h(c)
	_ = h(c)
	if calls != 1 || limited != 1 {
		t.Fatalf("calls=%d limited=%d, want 1/1", calls, limited)
	}

	_ = h(newStub(2))
	if calls != 2 {
		t.Fatalf("other user should pass, calls=%d", calls)
	}

	now = now.Add(2 * time.Second)
	_ = h(c)
	if calls != 3 {
		t.Fatalf("after interval calls=%d, want 3", calls)
	}
}

func TestRateLimitExcludesUpdateKind(t *testing.T) {
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		Exclude:  map[string]struct{}{"callback": {}},
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })

	c := newStub(1)
	c.msg = nil
	c.cb = &tele.Callback{Data: "x"}
	for range 3 {
		_ = h(c)
	}
	if calls != 3 {
		t.Fatalf("callbacks should bypass limit, calls=%d", calls)
	}
}

func TestRateLimitForgetsOldestUsers(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		MaxUsers: 1,
		Now:      func() time.Time { return now },
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })

	first := newStub(1)
	_ = h(first)
	_ = h(newStub(2))
	_ = h(first)
	if calls != 3 {
		t.Fatalf("evicted user should pass again, calls=%d", calls)
	}
}

func TestAdminOnlyMiddleware(t *testing.T) {
	rejected := 0
	mw := AdminOnlyMiddleware(AdminOptions{
		IsAdmin:  func(id int64) bool { return id == 42 },
		OnReject: func(tele.Context) error { rejected++; return nil },
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })

	_ = h(newStub(42))
	_ = h(newStub(7))
	if calls != 1 || rejected != 1 {
		t.Fatalf("calls=%d rejected=%d, want 1/1", calls, rejected)
	}

	var none AdminOptions
	if none.Allowed(newStub(42)) {
		t.Fatalf("nil predicate must deny")
	}
}
