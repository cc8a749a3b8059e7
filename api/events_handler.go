package api

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/bot"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/llm"
)

// Event Grid event types the webhook understands.
const (
	eventTypeSubscriptionValidation = "Microsoft.EventGrid.SubscriptionValidationEvent"
	eventTypeAdvancedMessage        = "Microsoft.Communication.AdvancedMessageReceived"
)

// gridEvent is the Event Grid envelope. Only the fields the webhook needs
// are decoded; Data is deferred until the event type is known.
type gridEvent struct {
	ID        string          `json:"id"`
	EventType string          `json:"eventType"`
	Data      json.RawMessage `json:"data"`
}

type validationData struct {
	ValidationCode string `json:"validationCode"`
}

type advancedMessageData struct {
	From              string    `json:"from"`
	Content           string    `json:"content"`
	ChannelType       string    `json:"channelType"`
	ReceivedTimestamp time.Time `json:"receivedTimestamp"`
}

// EventsResponse acknowledges processed message events.
type EventsResponse struct {
	Handled int `json:"handled"`
}

// handleMessageEvents handles POST /v1/messages/events, the Event Grid
// webhook for inbound channel messages. Subscription validation handshakes
// are answered directly; message events run a full bot turn each. Any
// failed turn returns 500 so the grid redelivers the batch.
func (s *Server) handleMessageEvents(c *fiber.Ctx) error {
	var events []gridEvent
	if err := json.Unmarshal(c.Body(), &events); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid event payload"})
	}

	for _, event := range events {
		if event.EventType == eventTypeSubscriptionValidation {
			var data validationData
			if err := json.Unmarshal(event.Data, &data); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid validation event"})
			}
			return c.JSON(fiber.Map{"validationResponse": data.ValidationCode})
		}
	}

	handled := 0
	failed := 0
	for _, event := range events {
		if event.EventType != eventTypeAdvancedMessage {
			s.logger.Debug("ignoring event",
				zap.String("event_type", event.EventType),
				zap.String("event_id", event.ID),
			)
			continue
		}

		var data advancedMessageData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			s.logger.Warn("malformed message event",
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
			failed++
			continue
		}

		msg := bot.InboundMessage{
			ConversationID: data.ChannelType + ":" + data.From,
			From:           data.From,
			Text:           data.Content,
			Channel:        data.ChannelType,
			ReceivedAt:     data.ReceivedTimestamp,
		}

		if err := s.deps.Bot.HandleMessage(c.Context(), msg); err != nil {
			s.logger.Error("handling message event failed",
				zap.String("event_id", event.ID),
				zap.String("conversation_id", msg.ConversationID),
				zap.Error(err),
			)
			failed++
			continue
		}
		handled++
	}

	if failed > 0 {
		return c.Status(fiber.StatusInternalServerError).JSON(EventsResponse{Handled: handled})
	}

	return c.JSON(EventsResponse{Handled: handled})
}
