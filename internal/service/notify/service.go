package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/access"
	"github.com/mamadbah2/bakery/internal/config"
	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/repository"
	"github.com/mamadbah2/bakery/internal/service/commands"
	"github.com/mamadbah2/bakery/internal/service/records"
	client "github.com/mamadbah2/bakery/pkg/clients/whatsapp"
)

const sendTimeout = 10 * time.Second

var (
	// ErrMessagingDisabled is returned when no WhatsApp credentials are configured.
	ErrMessagingDisabled = errors.New("messaging is not configured")
	// ErrInvalidSubscriber is returned for a malformed subscription request.
	ErrInvalidSubscriber = errors.New("invalid subscriber")
	// ErrPhoneTaken is returned when the phone is registered to another user.
	ErrPhoneTaken = errors.New("phone is registered to another user")
)

// MessagingService describes the operations the HTTP layer and the
// scheduler can perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
	Broadcast(ctx context.Context, message string) (int, error)
	Subscribe(ctx context.Context, sub models.Subscriber) error
}

// SubscriberStore persists notification recipients.
type SubscriberStore interface {
	Upsert(ctx context.Context, sub models.Subscriber) error
	List(ctx context.Context) ([]models.Subscriber, error)
	ByPhone(ctx context.Context, phone string) (models.Subscriber, error)
}

// Service is the WhatsApp Cloud API backed implementation.
type Service struct {
	cfg         config.WhatsAppConfig
	client      client.Client
	dispatcher  commands.Dispatcher
	subscribers SubscriberStore
	logger      *zap.Logger
}

// NewService wires a new service instance. A nil client disables sending.
func NewService(cfg config.WhatsAppConfig, c client.Client, dispatcher commands.Dispatcher, subscribers SubscriberStore, logger *zap.Logger) *Service {
	svc := &Service{
		cfg:         cfg,
		client:      c,
		dispatcher:  dispatcher,
		subscribers: subscribers,
		logger:      logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

const helpMessage = "Supported commands:\n" +
	"/produce <product> <qty>\n" +
	"/sale <product> <qty> [price] [discount]\n" +
	"/return <product> <qty>\n" +
	"/stock\n" +
	"/report"

var usage = map[models.CommandType]string{
	models.CommandProduce: "Usage: /produce <product> <qty>, e.g. /produce baguette 40",
	models.CommandSale:    "Usage: /sale <product> <qty> [price] [discount], e.g. /sale baguette 3 100",
	models.CommandReturn:  "Usage: /return <product> <qty>, e.g. /return brioche 2",
}

// VerifyWebhookToken validates the callback verification token.
func (s *Service) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", errors.New("missing mode or verify token")
	}

	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("unsupported hub.mode %s", mode)
	}

	if s.cfg.VerifyToken == "" || verifyToken != s.cfg.VerifyToken {
		return "", errors.New("invalid verify token")
	}

	return challenge, nil
}

// HandleWebhook processes inbound webhook payloads. Delivery receipts are
// ignored; the first message failure is returned after all are attempted.
func (s *Service) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	var firstErr error

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if err := s.handleInboundMessage(ctx, msg); err != nil {
					s.logger.Error("failed to handle inbound message", zap.Error(err), zap.String("message_id", msg.ID))
					if firstErr == nil {
						firstErr = err
					}
				}
			}
		}
	}

	return firstErr
}

func (s *Service) handleInboundMessage(ctx context.Context, msg models.InboundMessage) error {
	text := msg.Body()
	if text == "" {
		s.logger.Debug("ignoring message without text", zap.String("type", msg.Type))
		return nil
	}

	sender, err := s.lookupSender(ctx, msg.From)
	if err != nil {
		return err
	}

	cmd := models.ParseCommand(text)
	s.logger.Info("parsed inbound command",
		zap.String("from", msg.From),
		zap.String("command", string(cmd.Type)),
		zap.Any("args", cmd.Args))

	reply, err := s.dispatcher.HandleCommand(ctx, cmd, sender)
	if err != nil {
		reply = s.replyForError(cmd, err)
		if reply == "" {
			return fmt.Errorf("handle %s command: %w", cmd.Type, err)
		}
	}

	return s.send(ctx, msg.From, reply, false)
}

// lookupSender maps a WhatsApp number to a registered staff member. Unknown
// numbers get an empty role, which no capability matches.
func (s *Service) lookupSender(ctx context.Context, phone string) (commands.Sender, error) {
	sender := commands.Sender{Phone: phone}
	if s.subscribers == nil {
		return sender, nil
	}

	sub, err := s.subscribers.ByPhone(ctx, normalizePhone(phone))
	if errors.Is(err, repository.ErrNotFound) {
		return sender, nil
	}
	if err != nil {
		return sender, fmt.Errorf("lookup sender: %w", err)
	}

	sender.UserID = sub.UserID
	if role, ok := access.ParseRole(sub.Role); ok {
		sender.Role = role
	}
	return sender, nil
}

func (s *Service) replyForError(cmd models.Command, err error) string {
	switch {
	case errors.Is(err, commands.ErrUnsupportedCommand):
		return helpMessage
	case errors.Is(err, commands.ErrForbidden):
		return "You are not allowed to use this command."
	case errors.Is(err, commands.ErrInvalidArguments), errors.Is(err, records.ErrInvalidArguments):
		if text, ok := usage[cmd.Type]; ok {
			return text
		}
		return helpMessage
	case errors.Is(err, records.ErrUnknownProduct):
		return "Unknown product. Check the name and try again."
	}
	return ""
}

// SendOutbound lets operators push a message to one recipient via HTTP.
func (s *Service) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	to := normalizePhone(req.To)
	if to == "" {
		to = normalizePhone(s.cfg.OwnerPhone)
	}
	if to == "" {
		return errors.New("recipient must be provided")
	}
	return s.send(ctx, to, req.Message, req.PreviewURL)
}

// Broadcast sends message to every subscriber and the owner number, once
// per phone. It returns how many sends succeeded and the first failure.
func (s *Service) Broadcast(ctx context.Context, message string) (int, error) {
	if s.client == nil {
		return 0, ErrMessagingDisabled
	}

	recipients := []string{normalizePhone(s.cfg.OwnerPhone)}
	if s.subscribers != nil {
		subs, err := s.subscribers.List(ctx)
		if err != nil {
			return 0, fmt.Errorf("list subscribers: %w", err)
		}
		for _, sub := range subs {
			recipients = append(recipients, normalizePhone(sub.Phone))
		}
	}

	seen := make(map[string]bool, len(recipients))
	var sent int
	var firstErr error
	for _, to := range recipients {
		if to == "" || seen[to] {
			continue
		}
		seen[to] = true

		if err := s.send(ctx, to, message, false); err != nil {
			s.logger.Warn("broadcast delivery failed", zap.String("to", to), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		sent++
	}

	s.logger.Info("broadcast sent", zap.Int("recipients", sent))
	return sent, firstErr
}

// Subscribe registers or updates a notification recipient.
func (s *Service) Subscribe(ctx context.Context, sub models.Subscriber) error {
	sub.Phone = normalizePhone(sub.Phone)
	if sub.UserID == "" || sub.Phone == "" {
		return fmt.Errorf("%w: user and phone are required", ErrInvalidSubscriber)
	}
	if _, ok := access.ParseRole(sub.Role); !ok {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidSubscriber, sub.Role)
	}
	if s.subscribers == nil {
		return ErrMessagingDisabled
	}

	// a phone stays bound to the user who registered it
	existing, err := s.subscribers.ByPhone(ctx, sub.Phone)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return fmt.Errorf("lookup subscriber: %w", err)
	case existing.UserID != sub.UserID:
		s.logger.Warn("subscription for a phone owned by another user rejected", zap.String("user_id", sub.UserID))
		return ErrPhoneTaken
	}

	return s.subscribers.Upsert(ctx, sub)
}

func (s *Service) send(ctx context.Context, to, body string, previewURL bool) error {
	if s.client == nil {
		return ErrMessagingDisabled
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         to,
		Body:       body,
		PreviewURL: previewURL,
	})
	return err
}

// normalizePhone strips formatting so numbers compare the way the Cloud API
// reports them: digits only, no leading plus.
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
