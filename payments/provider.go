package payments

import "context"

// CheckoutRequest 创建支付会话所需的信息，金额为最小货币单位
type CheckoutRequest struct {
	ContestID     string
	ContestTitle  string
	CustomerEmail string
	UnitAmount    int64
	Currency      string
	SuccessURL    string
	CancelURL     string
}

// Session 支付服务商会话在本系统内的视图
type Session struct {
	ID            string
	URL           string
	PaymentStatus string
	TransactionID string
	AmountTotal   int64
	Currency      string
	CustomerEmail string
	Metadata      map[string]string
}

const SessionPaid = "paid"

func (s *Session) Paid() bool {
	return s.PaymentStatus == SessionPaid
}

type Processor interface {
	Name() string

	// CreateCheckoutSession 创建托管支付页面，不写本地状态
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error)

	// RetrieveSession 查询会话及支付状态
	RetrieveSession(ctx context.Context, sessionID string) (*Session, error)
}
