package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"invoiceflow/internal/config"
	"invoiceflow/internal/domain/model"
	"invoiceflow/internal/domain/ports/adapter"
)

var _ adapter.InvoiceNotifier = (*RealBotNotifier)(nil)

// RealBotNotifier pushes a short message to the configured ops channel
// whenever a recurring invoice is generated.
type RealBotNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewRealBotNotifier(cfg *config.NotifierConfig) (*RealBotNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, err
	}
	return &RealBotNotifier{bot: bot, chatID: cfg.TelegramChatID}, nil
}

func (n *RealBotNotifier) NotifyInvoiceGenerated(ctx context.Context, sub *model.Subscription, inv *model.Invoice) error {
	text := fmt.Sprintf(
		"Invoice %s generated for %s\nAmount: %s\nDue: %s",
		inv.ID, sub.ClientName,
		model.FormatAmount(inv.Amount, inv.Currency),
		inv.DueDate.Format("2006-01-02"),
	)
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return err
	}
	return nil
}
