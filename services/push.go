package services

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/wowcafe/cafe-app/models"
	"github.com/wowcafe/cafe-app/utils"
)

// PushSender dispatches a push notification to a set of device tokens.
// Implemented by the FCM client in production and by fakes in tests.
type PushSender interface {
	SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}

type FCMSender struct {
	client *messaging.Client
}

// NewFCMSender builds a sender from the Firebase Admin credentials file.
func NewFCMSender(ctx context.Context) (*FCMSender, error) {
	credFile := os.Getenv("FIREBASE_CREDENTIALS")
	if credFile == "" {
		credFile = "firebase_credentials.json"
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credFile))
	if err != nil {
		return nil, err
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}
	return &FCMSender{client: client}, nil
}

func (s *FCMSender) SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if len(tokens) == 0 {
		return nil
	}

	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}
	_, err := s.client.SendEachForMulticast(ctx, msg)
	return err
}

// Notifier is the best-effort push side channel. Dispatch failures are
// logged and swallowed so they can never fail an order transaction.
type Notifier struct {
	Sender PushSender
}

func NewNotifier(sender PushSender) *Notifier {
	return &Notifier{Sender: sender}
}

func (n *Notifier) Push(tokens []string, title, body string, data map[string]string) {
	if n == nil || n.Sender == nil || len(tokens) == 0 {
		return
	}
	if err := n.Sender.SendToTokens(context.Background(), tokens, title, body, data); err != nil {
		if utils.ErrorLogger != nil {
			utils.ErrorLogger.Printf("push dispatch failed: %v", err)
		}
	}
}

// OrderStatusMessage resolves the customer-facing push content for a status.
func OrderStatusMessage(status models.OrderStatus, orderNo uint) (string, string) {
	switch status {
	case models.StatusPlaced:
		return "Order placed", fmt.Sprintf("Your order #%d has been placed", orderNo)
	case models.StatusInKitchen:
		return "Order in kitchen", fmt.Sprintf("Order #%d is being prepared", orderNo)
	case models.StatusPrepared:
		return "Order prepared", fmt.Sprintf("Order #%d is ready", orderNo)
	case models.StatusInDelivery:
		return "Order out for delivery", fmt.Sprintf("Order #%d is on its way", orderNo)
	case models.StatusAllDone:
		return "Order delivered", fmt.Sprintf("Order #%d is complete, enjoy!", orderNo)
	case models.StatusCancelByCustomer:
		return "Order cancelled", fmt.Sprintf("Order #%d was cancelled", orderNo)
	case models.StatusCancelByStore:
		return "Order cancelled", fmt.Sprintf("Order #%d was cancelled by the store", orderNo)
	}
	return "Order update", fmt.Sprintf("Order #%d was updated", orderNo)
}
