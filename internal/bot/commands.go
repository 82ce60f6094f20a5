package bot

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/models"
)

const adminHelp = `Доступные команды:
/tasks - Список задач со статусами
/candidates - Список кандидатов
/overdue - Просроченные задачи без сабмита
/help - Показать это сообщение`

type commandHandler func(*tgbotapi.Message) error

func (b *Bot) routeCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"start":      b.handleStart,
		"help":       b.handleHelp,
		"tasks":      b.handleTasks,
		"candidates": b.handleCandidates,
		"overdue":    b.handleOverdue,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if !b.admins[msg.From.ID] {
		b.sendMessage(msg.Chat.ID, "Этот бот только для администраторов.")
		return
	}

	if !msg.IsCommand() {
		b.sendHelp(msg.Chat.ID)
		return
	}

	if handler, ok := b.routeCommands(msg.Command()); ok {
		if err := handler(msg); err != nil {
			logger.Error.Printf("Command error: %v", err)
			b.sendMessage(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
		}
		return
	}

	b.sendHelp(msg.Chat.ID)
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	return b.sendMessage(msg.Chat.ID, "Привет! Я слежу за задачами кандидатов. Используй /help для списка команд.")
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendMessage(msg.Chat.ID, adminHelp)
}

func (b *Bot) sendHelp(chatID int64) error {
	return b.sendMessage(chatID, "Отправьте /help для списка команд.")
}

var statusEmoji = map[string]string{
	models.StatusAssigned:   "📬",
	models.StatusDownloaded: "📥",
	models.StatusSubmitted:  "📤",
	models.StatusCompleted:  "✅",
}

func (b *Bot) handleTasks(msg *tgbotapi.Message) error {
	tasks, err := b.store.ListAllTasks()
	if err != nil {
		return fmt.Errorf("ошибка получения списка задач: %v", err)
	}

	if len(tasks) == 0 {
		return b.sendMessage(msg.Chat.ID, "Задачи не найдены")
	}

	var out strings.Builder
	out.WriteString("Задачи:\n\n")
	for _, task := range tasks {
		assignee := "никому"
		if task.AssignedToName != nil {
			assignee = *task.AssignedToName
		}
		deadline := time.Unix(task.Deadline, 0).UTC()
		out.WriteString(fmt.Sprintf("%s %s → %s [%s]\n📅 %s UTC\n\n",
			statusEmoji[task.EffectiveStatus],
			task.TaskName,
			assignee,
			task.EffectiveStatus,
			deadline.Format("2006-Jan-02 Mon 15:04"),
		))
	}

	return b.sendMessage(msg.Chat.ID, out.String())
}

func (b *Bot) handleCandidates(msg *tgbotapi.Message) error {
	candidates, err := b.store.ListCandidates()
	if err != nil {
		return fmt.Errorf("ошибка получения списка кандидатов: %v", err)
	}

	if len(candidates) == 0 {
		return b.sendMessage(msg.Chat.ID, "Кандидаты не найдены")
	}

	var out strings.Builder
	out.WriteString("Кандидаты:\n\n")
	for _, c := range candidates {
		out.WriteString(fmt.Sprintf("👤 %s (%s)\n", c.Username, c.Email))
	}

	return b.sendMessage(msg.Chat.ID, out.String())
}

func (b *Bot) handleOverdue(msg *tgbotapi.Message) error {
	tasks, err := b.store.ListAllTasks()
	if err != nil {
		return fmt.Errorf("ошибка получения списка задач: %v", err)
	}

	now := time.Now().UTC().Unix()
	var out strings.Builder
	count := 0
	for _, task := range tasks {
		if task.Deadline >= now {
			continue
		}
		if task.EffectiveStatus == models.StatusSubmitted || task.EffectiveStatus == models.StatusCompleted {
			continue
		}
		assignee := "никому"
		if task.AssignedToName != nil {
			assignee = *task.AssignedToName
		}
		out.WriteString(fmt.Sprintf("⏰ %s → %s (дедлайн был %s UTC)\n",
			task.TaskName,
			assignee,
			time.Unix(task.Deadline, 0).UTC().Format("2006-Jan-02 15:04"),
		))
		count++
	}

	if count == 0 {
		return b.sendMessage(msg.Chat.ID, "Просроченных задач нет 🎉")
	}

	return b.sendMessage(msg.Chat.ID, out.String())
}

func (b *Bot) sendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}
