package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var ErrUnknownSession = errors.New("unknown checkout session")

// Stub 本地开发和测试用的支付实现：会话保存在内存里，通过 MarkPaid 模拟付款完成
type Stub struct {
	baseURL string

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStub(baseURL string) *Stub {
	return &Stub{
		baseURL:  strings.TrimRight(baseURL, "/"),
		sessions: map[string]*Session{},
	}
}

func (p *Stub) Name() string { return "stub" }

func (p *Stub) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	id := "cs_stub_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	s := &Session{
		ID:            id,
		URL:           fmt.Sprintf("%s/pay/stub?session_id=%s", p.baseURL, id),
		PaymentStatus: "unpaid",
		AmountTotal:   req.UnitAmount,
		Currency:      req.Currency,
		CustomerEmail: req.CustomerEmail,
		Metadata: map[string]string{
			"contestId":    req.ContestID,
			"contestTitle": req.ContestTitle,
		},
	}

	p.mu.Lock()
	p.sessions[id] = s
	p.mu.Unlock()

	cp := *s
	return &cp, nil
}

func (p *Stub) RetrieveSession(ctx context.Context, sessionID string) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	cp := *s
	return &cp, nil
}

// Put 直接登记一个会话，测试中用来构造任意状态
func (p *Stub) Put(s Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[s.ID] = &s
}

// MarkPaid 模拟用户完成付款
func (p *Stub) MarkPaid(sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	s.PaymentStatus = SessionPaid
	if s.TransactionID == "" {
		s.TransactionID = "pi_stub_" + strings.TrimPrefix(sessionID, "cs_stub_")
	}
	return nil
}
