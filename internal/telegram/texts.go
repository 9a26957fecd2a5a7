package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Konano/IngressSojournerReminder/internal/notify"
)

const (
	welcomeText = "Welcome to use Ingress Sojourner Reminder!\n\n" +
		"This bot will remind you to hack a portal in Ingress to prevent you from losing your Sojourner Streak.\n" +
		"You can use /hacked to refresh the hack interval, or you can click the button below the alert to refresh it.\n" +
		"*Remember: Press the button no later than 30 minutes after your hack!*\n\n" +
		"After you have hacked any Ingress portal, click the button below to refresh your record."

	alreadyStartedText = "You have already started."
	canceledText       = "You have canceled the reminder. If you want to use it again, please /start."
	refreshOKText      = "Refresh Ingress Sojourner Reminder OK!"
	pleaseStartText    = "Please /start first."

	noChannelText      = "No notification channel added."
	channelAddedText   = "Notification channel added."
	channelDeletedText = "Notification channel deleted."
	channelLimitText   = "You can only add three channels at most. Please delete some before adding new ones."
	channelMissingText = "Channel not found."
	needURLText        = "Please provide a URL."
)

// protocolHelpText lists every supported fan-out service with its docs link.
func protocolHelpText() string {
	text := "Supported protocols are now:\n"
	for _, s := range notify.Services {
		text += "- [" + s.Name + "](" + s.DocsURL + ")\n"
	}
	return text
}

// signinKeyboard is the single "Already hacked" button attached to the
// welcome message and to every alert.
func signinKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Already hacked", "HACK"),
		),
	)
}
