package notifications

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/resinriver/storefront/pkg/db/models"
	"github.com/resinriver/storefront/pkg/enums"
	"github.com/resinriver/storefront/pkg/logger"
)

// Email kinds, also used as metric labels.
const (
	KindConfirmation = "order_confirmation"
	KindStatusUpdate = "order_status_update"
	KindPayment      = "payment_confirmation"
)

var errNoRecipient = errors.New("order has no email recipient")

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

var funcs = map[string]any{
	"money": func(d decimal.Decimal) string { return "$" + d.StringFixed(2) },
}

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.New("html").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.New("text").Funcs(funcs).ParseFS(templateFS, "templates/*.txt"))
)

// UserLookup resolves the account behind an order.
type UserLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type emailMetrics interface {
	IncEmail(kind string, sent bool)
}

// Notifier sends the order emails. Every method reports whether the email went
// out; failures are logged and never returned.
type Notifier interface {
	OrderConfirmation(ctx context.Context, order *models.Order) bool
	StatusUpdate(ctx context.Context, order *models.Order, previous enums.OrderStatus) bool
	PaymentConfirmation(ctx context.Context, order *models.Order) bool
}

// ServiceParams wires the notifier.
type ServiceParams struct {
	Mailer    Mailer
	Users     UserLookup
	Logger    *logger.Logger
	Metrics   emailMetrics
	StoreName string
	SiteURL   string
}

type service struct {
	mailer    Mailer
	users     UserLookup
	logg      *logger.Logger
	metrics   emailMetrics
	storeName string
	siteURL   string
}

// NewService builds the email notifier.
func NewService(params ServiceParams) (Notifier, error) {
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		mailer:    params.Mailer,
		users:     params.Users,
		logg:      logg,
		metrics:   params.Metrics,
		storeName: params.StoreName,
		siteURL:   params.SiteURL,
	}, nil
}

type emailData struct {
	Order          *models.Order
	StoreName      string
	SiteURL        string
	PreviousStatus string
	CurrentStatus  string
}

func (s *service) OrderConfirmation(ctx context.Context, order *models.Order) bool {
	return s.send(ctx, KindConfirmation, order, fmt.Sprintf("Order Confirmation - Order #%d", order.OrderNumber), emailData{})
}

func (s *service) StatusUpdate(ctx context.Context, order *models.Order, previous enums.OrderStatus) bool {
	data := emailData{
		PreviousStatus: previous.Label(),
		CurrentStatus:  order.Status.Label(),
	}
	return s.send(ctx, KindStatusUpdate, order, fmt.Sprintf("Order Update - Order #%d", order.OrderNumber), data)
}

func (s *service) PaymentConfirmation(ctx context.Context, order *models.Order) bool {
	return s.send(ctx, KindPayment, order, fmt.Sprintf("Payment Confirmed - Order #%d", order.OrderNumber), emailData{})
}

func (s *service) send(ctx context.Context, kind string, order *models.Order, subject string, data emailData) bool {
	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	ctx = s.logg.WithField(ctx, "email_kind", kind)

	err := s.deliver(ctx, kind, order, subject, data)
	if s.metrics != nil {
		s.metrics.IncEmail(kind, err == nil)
	}
	if err != nil {
		s.logg.Error(ctx, "notifications.email_failed", err)
		return false
	}
	s.logg.Info(ctx, "notifications.email_sent")
	return true
}

func (s *service) deliver(ctx context.Context, kind string, order *models.Order, subject string, data emailData) error {
	recipient := order.RecipientEmail(s.accountEmail(ctx, order))
	if recipient == "" {
		return errNoRecipient
	}

	data.Order = order
	data.StoreName = s.storeName
	data.SiteURL = s.siteURL

	var html, plain bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, kind+".html", data); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	if err := textTemplates.ExecuteTemplate(&plain, kind+".txt", data); err != nil {
		return fmt.Errorf("render plain: %w", err)
	}

	return s.mailer.Send(ctx, Message{
		To:        recipient,
		Subject:   subject,
		PlainBody: plain.String(),
		HTMLBody:  html.String(),
	})
}

func (s *service) accountEmail(ctx context.Context, order *models.Order) string {
	if order.UserID == nil || s.users == nil {
		return ""
	}
	user, err := s.users.FindByID(ctx, *order.UserID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "notifications.user_lookup_failed")
		return ""
	}
	return user.Email
}
