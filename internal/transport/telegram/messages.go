package telegram

import (
	"fmt"
	"html"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	domuser "github.com/tgassist/tgassist/internal/domain/user"
	"github.com/tgassist/tgassist/internal/usecase/notification"
)

// Callback data.
const (
	cbCheckSubscription = "check_channel_subscription"
	cbNotificationsOn   = "notifications_on"
	cbNotificationsOff  = "notifications_off"
	cbBackToSettings    = "back_to_settings"
	cbFreqPrefix        = "notif_freq_"
	cbTimePrefix        = "notif_time_"
	cbPagePrefix        = "notif_page_"
)

// Hours offered per page of the time picker.
const hoursPerPage = 12

func welcomeText(name string) string {
	return fmt.Sprintf("👋 Привет, %s!\n\n"+
		"Я бот-помощник этого канала.\n"+
		"Задавайте любые вопросы! Просто напишите вопрос, и я постараюсь помочь 💬\n"+
		"Я отвечаю по материалам видео и статей канала.\n\n"+
		"Ещё я умею:\n"+
		"• 🔍 Находить темы, которые обсуждались в видео\n"+
		"• 📝 Давать краткое описание материалов\n"+
		"• ❓ Отвечать на вопросы по любой теме канала\n\n"+
		"Дополнительные команды:\n"+
		"/help - Справка\n"+
		"/settings - Настройки уведомлений\n\n"+
		"Начнём! Напишите свой вопрос.", html.EscapeString(name))
}

const helpText = "🔍 <b>Доступные команды</b>\n\n" +
	"/start - Запустить бота\n" +
	"/help - Показать эту справку\n" +
	"/settings - Настройки уведомлений\n" +
	"/timezone UTC+3 - Указать часовой пояс для уведомлений\n\n" +
	"Чтобы задать вопрос по материалам, просто отправьте текстовое сообщение."

func bookOfferText(channel string) string {
	return fmt.Sprintf("🎁 Подпишитесь на канал @%s и получите книгу в подарок!\n\n"+
		"После подписки нажмите кнопку ниже.", channel)
}

func notSubscribedText(channel string) string {
	return fmt.Sprintf("😔 Похоже, вы ещё не подписаны на канал @%s.\n\n"+
		"Подпишитесь и нажмите кнопку ещё раз, чтобы получить книгу.", channel)
}

// Delivery and settings messages.
const (
	msgBookSent          = "✅ Книга отправлена!"
	msgBookAlreadySent   = "📚 Книга уже была отправлена вам ранее. Загляните выше в переписку!"
	msgBookMissing       = "❌ Ошибка: файл книги не найден. Обратитесь к администратору."
	msgBookSendFailed    = "❌ Произошла ошибка при отправке книги. Попробуйте позже."
	msgUserNotFound      = "Ошибка: пользователь не найден. Попробуйте /start снова."
	msgSettingsError     = "Произошла ошибка при загрузке настроек"
	msgSaveError         = "Произошла ошибка при сохранении настроек"
	msgNotificationsOff  = "✅ Уведомления отключены"
	msgUnknownFrequency  = "❌ Неизвестная частота уведомлений"
	msgAdminOnly         = "⛔ Команда доступна только администратору."
	msgTestSent          = "✅ Тестовое уведомление отправлено!"
	msgTestFailed        = "❌ Ошибка при отправке тестового уведомления"
	msgSendNowFailed     = "❌ Произошла ошибка при отправке уведомлений"
	msgTimezoneUsage     = "🌍 Текущий часовой пояс: <b>%s</b>\n\nЧтобы изменить, отправьте: <code>/timezone UTC+3</code> (формат UTC, UTC+N, UTC-N)"
	msgTimezoneSaved     = "✅ Часовой пояс сохранён: <b>%s</b>"
	msgTimezoneInvalid   = "❌ Неверный формат. Используйте UTC, UTC+N или UTC-N, например <code>UTC+3</code>."
	msgFrequencyPrompt   = "🔔 <b>Настройка уведомлений</b>\n\nВыберите частоту получения уведомлений:"
	msgScheduleConfirmed = "✅ Уведомления настроены: %s в %s"
)

var frequencyNames = map[domuser.Frequency]string{
	domuser.Daily:    "каждый день",
	domuser.Weekdays: "только рабочие дни",
	domuser.Weekends: "только выходные",
}

func frequencyName(f domuser.Frequency) string {
	if n, ok := frequencyNames[f]; ok {
		return n
	}
	return string(f)
}

func settingsText(u *domuser.User, s domuser.Settings) string {
	status := "🔕 Отключены"
	if u.Notification {
		status = "🔔 Включены"
		if s.Frequency != "" && s.Time != "" {
			status += fmt.Sprintf(" (%s в %s)", frequencyName(s.Frequency), s.Time)
		}
	}
	tz := u.Timezone
	if tz == "" {
		tz = domuser.DefaultTimezone
	}
	return "⚙️ <b>Настройки</b>\n\n" +
		"<b>Текущие настройки:</b>\n" +
		fmt.Sprintf("🔔 Уведомления: %s\n", status) +
		fmt.Sprintf("🌍 Часовой пояс: %s\n\n", html.EscapeString(tz)) +
		"Выберите действие:"
}

func timePickerText(f domuser.Frequency, page int) string {
	from := page * hoursPerPage
	return fmt.Sprintf("🕐 <b>Выбор времени уведомлений</b>\n\nЧастота: %s\nВыберите час (%02d:00 - %02d:00):",
		frequencyName(f), from, from+hoursPerPage-1)
}

func sendNowText(r notification.Report) string {
	if r.Due == 0 {
		return "ℹ️ Сейчас нет пользователей, запланированных для уведомлений"
	}
	return fmt.Sprintf("✅ Уведомления отправлены!\n\n📊 Статистика:\n• Успешно: %d\n• Ошибки: %d\n• Всего пользователей: %d",
		r.Sent, r.Failed, r.Due)
}

func bookKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📖 Получить книгу", cbCheckSubscription),
		),
	)
}

func settingsKeyboard(u *domuser.User) tgbotapi.InlineKeyboardMarkup {
	button := tgbotapi.NewInlineKeyboardButtonData("🔔 Включить уведомления", cbNotificationsOn)
	if u.Notification {
		button = tgbotapi.NewInlineKeyboardButtonData("🔕 Отключить уведомления", cbNotificationsOff)
	}
	rows := [][]tgbotapi.InlineKeyboardButton{tgbotapi.NewInlineKeyboardRow(button)}
	if u.Notification {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🕐 Изменить расписание", cbNotificationsOn),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func frequencyKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📅 Каждый день", cbFreqPrefix+string(domuser.Daily))),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("💼 Только рабочие дни", cbFreqPrefix+string(domuser.Weekdays))),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🏖️ Только выходные", cbFreqPrefix+string(domuser.Weekends))),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbBackToSettings)),
	)
}

// timeKeyboard lists one page of whole hours, three per row.
func timeKeyboard(f domuser.Frequency, page int) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for h := page * hoursPerPage; h < (page+1)*hoursPerPage; h++ {
		clock := fmt.Sprintf("%02d:00", h)
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(clock, cbTimePrefix+string(f)+"_"+clock))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}

	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Предыдущие",
			fmt.Sprintf("%s%s_%d", cbPagePrefix, f, page-1)))
	}
	if (page+1)*hoursPerPage < 24 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Следующие ➡️",
			fmt.Sprintf("%s%s_%d", cbPagePrefix, f, page+1)))
	}
	rows = append(rows, nav,
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад к частоте", cbNotificationsOn)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
