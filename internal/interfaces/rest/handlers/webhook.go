package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/DanielPopoola/creski-storefront/internal/application/services"
	"github.com/DanielPopoola/creski-storefront/internal/interfaces/rest"
)

const telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

type webhookAck struct {
	Status string `json:"status"`
}

// POST /api/webhooks/telegram always answers 200 so Telegram does not
// redeliver updates we chose to ignore.
func (h *Handlers) TelegramWebhook(w http.ResponseWriter, r *http.Request) {
	defer rest.WriteJSON(w, http.StatusOK, webhookAck{Status: "ok"})

	if h.webhookSecret != "" {
		got := r.Header.Get(telegramSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.webhookSecret)) != 1 {
			h.logger.Warn("telegram webhook secret mismatch")
			return
		}
	}

	var update telegramUpdate
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&update); err != nil {
		h.logger.Warn("malformed telegram update", "error", err)
		return
	}
	if update.MessageReaction == nil {
		return
	}

	reaction := update.MessageReaction
	_, err := h.reactions.HandleReaction(r.Context(), services.ReactionCommand{
		ChatID:    reaction.Chat.ID,
		MessageID: reaction.MessageID,
		Emojis:    reaction.emojis(),
	})
	if err != nil {
		h.logger.Error("failed to handle chat reaction",
			"update_id", update.UpdateID,
			"message_id", reaction.MessageID,
			"error", err)
	}
}
