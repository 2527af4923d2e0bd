package service

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/spec-kit/repair-marketplace/internal/domain"
	"github.com/spec-kit/repair-marketplace/internal/events"
	apperrors "github.com/spec-kit/repair-marketplace/pkg/util"
)

// fakeMessageRepo is an in-memory MessageRepository.
type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []domain.Message
	nextID   int
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	msg.ID = "msg-" + strconv.Itoa(r.nextID)
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *fakeMessageRepo) ListByOrder(_ context.Context, orderID string) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, msg := range r.messages {
		if msg.OrderID == orderID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func newChatFixture(t *testing.T) (*ChatService, *fakeMessageRepo, *captureDispatcher, *domain.Order) {
	t.Helper()
	orderRepo := newFakeOrderRepo()
	order := &domain.Order{RequesterID: "customer-1", Status: domain.JobStatusPending}
	if err := orderRepo.Create(context.Background(), order); err != nil {
		t.Fatalf("seed order: %v", err)
	}

	messageRepo := &fakeMessageRepo{}
	dispatcher := &captureDispatcher{}
	svc := NewChatService(ChatDependencies{
		MessageRepo: messageRepo,
		OrderRepo:   orderRepo,
		Dispatcher:  dispatcher,
	})
	return svc, messageRepo, dispatcher, order
}

func TestSendPersistsAndRelays(t *testing.T) {
	svc, repo, dispatcher, order := newChatFixture(t)

	msg, err := svc.Send(context.Background(), SendMessageInput{
		OrderID:       order.ID,
		SenderID:      "customer-1",
		SenderRole:    string(domain.RoleCustomer),
		Body:          "are you close?",
		CorrelationID: "local-42",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.ID == "" {
		t.Error("message should get a persisted id")
	}

	stored, _ := repo.ListByOrder(context.Background(), order.ID)
	if len(stored) != 1 || stored[0].Body != "are you close?" {
		t.Fatalf("stored = %+v, want one persisted message", stored)
	}

	added := dispatcher.byType(events.EventMessageAdded)
	if len(added) != 1 {
		t.Fatalf("message_added events = %d, want 1", len(added))
	}
	payload, ok := added[0].Payload.(events.MessageAddedPayload)
	if !ok {
		t.Fatalf("payload type = %T", added[0].Payload)
	}
	if payload.CorrelationID != "local-42" {
		t.Errorf("correlation id = %q, want local-42", payload.CorrelationID)
	}
	if payload.Message.ID != msg.ID {
		t.Errorf("relayed message id = %q, want %q", payload.Message.ID, msg.ID)
	}
}

func TestSendReportsAllMissingFields(t *testing.T) {
	svc, _, dispatcher, _ := newChatFixture(t)

	_, err := svc.Send(context.Background(), SendMessageInput{Body: "   "})
	var domainErr *apperrors.DomainError
	if code := domainErrCode(t, err); code != "VALIDATION_FAILED" {
		t.Fatalf("code = %s, want VALIDATION_FAILED", code)
	}
	domainErr = apperrors.ToDomainError(err)

	missing, ok := domainErr.Details["missing"].([]string)
	if !ok {
		t.Fatalf("details = %+v, want missing list", domainErr.Details)
	}
	want := []string{"orderId", "senderId", "senderRole", "message"}
	if len(missing) != len(want) {
		t.Fatalf("missing = %v, want %v", missing, want)
	}
	for i := range want {
		if missing[i] != want[i] {
			t.Errorf("missing[%d] = %q, want %q", i, missing[i], want[i])
		}
	}
	if len(dispatcher.byType(events.EventMessageAdded)) != 0 {
		t.Error("invalid message must not be relayed")
	}
}

func TestSendUnknownOrder(t *testing.T) {
	svc, repo, _, _ := newChatFixture(t)

	_, err := svc.Send(context.Background(), SendMessageInput{
		OrderID:    "no-such-order",
		SenderID:   "customer-1",
		SenderRole: string(domain.RoleCustomer),
		Body:       "hello",
	})
	if code := domainErrCode(t, err); code != "NOT_FOUND" {
		t.Errorf("code = %s, want NOT_FOUND", code)
	}
	if stored, _ := repo.ListByOrder(context.Background(), "no-such-order"); len(stored) != 0 {
		t.Error("message for unknown order must not be persisted")
	}
}

func TestListByOrderReturnsThreadInOrder(t *testing.T) {
	svc, _, _, order := newChatFixture(t)

	for _, body := range []string{"first", "second", "third"} {
		if _, err := svc.Send(context.Background(), SendMessageInput{
			OrderID:    order.ID,
			SenderID:   "customer-1",
			SenderRole: string(domain.RoleCustomer),
			Body:       body,
		}); err != nil {
			t.Fatalf("Send %q: %v", body, err)
		}
	}

	msgs, err := svc.ListByOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("ListByOrder: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	for i, want := range []string{"first", "second", "third"} {
		if msgs[i].Body != want {
			t.Errorf("msgs[%d].Body = %q, want %q", i, msgs[i].Body, want)
		}
	}
}
