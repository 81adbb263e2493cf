// README: Firebase Cloud Messaging push for events that target drivers.
package events

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"

	"flashtaxi/internal/types"
)

// DriversTopic is the FCM topic every driver app subscribes to.
const DriversTopic = "drivers"

type Messenger interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type DeviceTokens interface {
	DeviceToken(ctx context.Context, driverID types.ID) (string, error)
}

type PushPublisher struct {
	client Messenger
	tokens DeviceTokens
	topic  string
}

func NewPushPublisher(client Messenger, tokens DeviceTokens) *PushPublisher {
	return &PushPublisher{client: client, tokens: tokens, topic: DriversTopic}
}

// Publish pushes new ride requests to the drivers topic and cancellations to the
// assigned driver's device. Other events are not pushed.
func (p *PushPublisher) Publish(ctx context.Context, e Event) error {
	data := map[string]string{"event": e.Name, "payload": string(e.Payload)}
	switch e.Name {
	case NewRideRequest:
		_, err := p.client.Send(ctx, &messaging.Message{
			Topic: p.topic,
			Data:  data,
			Notification: &messaging.Notification{
				Title: "New ride request",
				Body:  "A rider nearby is looking for a driver",
			},
			Android: &messaging.AndroidConfig{Priority: "high"},
		})
		return err
	case RideCancelled:
		driverID, ok := DriverFromRoom(e.Room)
		if !ok {
			return nil
		}
		token, err := p.tokens.DeviceToken(ctx, driverID)
		if err != nil {
			return fmt.Errorf("device token for %s: %w", driverID, err)
		}
		if token == "" {
			return nil
		}
		_, err = p.client.Send(ctx, &messaging.Message{
			Token: token,
			Data:  data,
			Notification: &messaging.Notification{
				Title: "Ride cancelled",
				Body:  "The rider cancelled this trip",
			},
			Android: &messaging.AndroidConfig{Priority: "high"},
		})
		return err
	default:
		return nil
	}
}
