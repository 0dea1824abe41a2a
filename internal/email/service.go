package email

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/example/menu-orders/internal/domain/order"
	"github.com/example/menu-orders/internal/notify"
)

// Service sends the transactional order emails via SMTP. It is always
// invoked from the dispatcher pool; a failed send is logged by the caller
// and never reaches the ordering request.
type Service struct {
	host string
	port string
	from string
	// operatorTo receives the operator copy of confirmations and all
	// cancellation notices. Empty disables operator mail.
	operatorTo string
}

func NewService(host, port, from, operatorTo string) *Service {
	return &Service{
		host:       host,
		port:       port,
		from:       from,
		operatorTo: operatorTo,
	}
}

// OrderConfirmation sends the confirmation to the customer and the
// new-order notification to the operator. A failure on one recipient does
// not stop the other; the first error is returned for logging.
func (s *Service) OrderConfirmation(o *order.Order, owner notify.OwnerSummary) error {
	var firstErr error

	subject := fmt.Sprintf("Order Confirmed #%d", o.ID)
	if err := s.send(owner.Email, subject, BuildCustomerConfirmationBody(o, owner)); err != nil {
		firstErr = err
	}

	if s.operatorTo != "" {
		subject = fmt.Sprintf("New Order #%d - %s", o.ID, owner.DisplayName)
		if err := s.send(s.operatorTo, subject, BuildOperatorNotificationBody(o, owner)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// OrderCancellation notifies the operator that an order was cancelled.
func (s *Service) OrderCancellation(o *order.Order, owner notify.OwnerSummary) error {
	if s.operatorTo == "" {
		log.Printf("[Email] No operator address configured, skipping cancellation notice for order %d", o.ID)
		return nil
	}
	subject := fmt.Sprintf("Order Cancelled #%d - %s", o.ID, owner.DisplayName)
	return s.send(s.operatorTo, subject, BuildCancellationBody(o, owner))
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}
