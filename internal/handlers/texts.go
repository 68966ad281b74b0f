package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daily-report-bot/internal/models"
	"daily-report-bot/internal/service"
)

const (
	textJoined = "👋 Xin chào! Bot đã sẵn sàng gửi nhắc nhở report daily."

	textReportUsage = "📝 <b>How to submit a report:</b>\n\n" +
		"Use /report followed by your report content.\n" +
		"<b>Example:</b>\n" +
		"<code>/report Completed task A and working on task B</code>\n\n" +
		"<b>Note:</b> Be clear and concise in your report."
	textReportSaved  = "✅ <b>Report submitted successfully!</b>\nUse /status to see all submissions."
	textReportFailed = "❌ Failed to submit report. Please try again."

	textStatusFailed = "❌ Could not load today's reports. Please try again."
	textNoReports    = "No reports submitted yet today."

	textNotAdmin        = "⛔ This command is for admins only."
	textTriggered       = "✅ Manual reminder sent!"
	textTriggerFailed   = "❌ Reminder could not be started. Please try again."
	textSetTimeUsage    = "Please provide time in HH:MM format"
	textSetTimeInvalid  = "❌ Invalid time format. Please use HH:MM"
	textSetTopicUsage   = "Usage: <code>/settopic &lt;topic_id&gt;</code> or <code>/settopic &lt;chat_id&gt; &lt;topic_id&gt;</code>\nUse 0 for the main thread."
	textGroupNotFound   = "❌ This chat is not registered. Add the bot to the group first."
	textSettingsFailed  = "❌ Could not save the setting. Please try again."
	textScheduleMissing = "❌ Schedule is not available right now."
)

func escape(s string) string { return tgbotapi.EscapeText(tgbotapi.ModeHTML, s) }

// displayName is what the ledger stores as the reporter's name.
func displayName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	if u.UserName != "" {
		return "@" + u.UserName
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return fmt.Sprintf("user %d", u.ID)
}

func startText(sch *service.Schedule) string {
	var b strings.Builder
	b.WriteString("👋 <b>Welcome to Daily Report Bot!</b>\n\n")
	b.WriteString("I'm here to help manage daily reports in your group.\n\n")
	b.WriteString("<b>Available Commands:</b>\n")
	b.WriteString("📝 /report - Submit your daily report\n")
	b.WriteString("📊 /status - Check who has reported today\n")
	b.WriteString("📋 /reports - Read today's reports\n")
	b.WriteString("❓ /help - Show detailed help information\n\n")
	if sch != nil {
		fmt.Fprintf(&b, "Daily reminders will be sent at %s (%s).\n", sch.FireTime, escape(sch.Location.String()))
	}
	b.WriteString("Don't forget to submit your reports! 😊")
	return b.String()
}

func helpText(admin bool) string {
	var b strings.Builder
	b.WriteString("<b>📚 Daily Report Bot Help</b>\n\n")
	b.WriteString("<b>Basic Commands:</b>\n")
	b.WriteString("• /report &lt;your_report&gt; - Submit your daily report\n")
	b.WriteString("  Example: <code>/report Working on feature X</code>\n\n")
	b.WriteString("• /status - See who has reported today\n")
	b.WriteString("• /reports - Read today's reports\n\n")
	b.WriteString("<b>How to use:</b>\n")
	b.WriteString("1. Wait for the daily reminder or use commands anytime\n")
	b.WriteString("2. Submit your report using the /report command\n")
	b.WriteString("3. Check submission status with /status\n\n")
	b.WriteString("<b>Reminder Schedule:</b>\n")
	b.WriteString("• Weekdays: Regular daily report reminder\n")
	b.WriteString("• Weekends: Special weekend reminder\n")
	if admin {
		b.WriteString("\n<b>Admin Commands:</b>\n")
		b.WriteString("• /trigger - Manually send reminder\n")
		b.WriteString("• /settime &lt;HH:MM&gt; - Change reminder time\n")
		b.WriteString("  Example: <code>/settime 09:30</code>\n")
		b.WriteString("• /settopic &lt;topic_id&gt; - Send reminders for this chat to a topic\n")
		b.WriteString("• /schedule - Show the reminder schedule\n")
	}
	return b.String()
}

func statusText(users []string) string {
	var b strings.Builder
	b.WriteString("📊 <b>Today's Report Status:</b>\n\n")
	if len(users) == 0 {
		b.WriteString(textNoReports)
		return b.String()
	}
	b.WriteString("<b>Reported:</b>")
	for _, u := range users {
		b.WriteString("\n✅ ")
		b.WriteString(escape(u))
	}
	return b.String()
}

func reportsText(reports []models.Report, now time.Time) string {
	var b strings.Builder
	b.WriteString("📋 <b>Today's Reports:</b>\n")
	if len(reports) == 0 {
		b.WriteString("\n")
		b.WriteString(textNoReports)
		return b.String()
	}
	for _, r := range reports {
		fmt.Fprintf(&b, "\n✅ <b>%s</b> · %s\n%s\n",
			escape(r.Username), humanize.RelTime(r.SubmittedAt, now, "ago", "from now"), escape(r.Content))
	}
	return strings.TrimRight(b.String(), "\n")
}

func setTimeText(at models.ClockTime) string {
	return fmt.Sprintf("⏰ Reminder time set to %s", at)
}

func setTopicText(chatID, topic int64) string {
	if topic == 0 {
		return fmt.Sprintf("🧵 Reminders for chat <code>%d</code> go to the main thread.", chatID)
	}
	return fmt.Sprintf("🧵 Reminders for chat <code>%d</code> go to topic <code>%d</code>.", chatID, topic)
}

func scheduleText(sch service.Schedule, now time.Time) string {
	next := sch.NextRun.In(sch.Location)
	return fmt.Sprintf("⏰ Reminder fires daily at <b>%s</b> (%s)\nNext run: %s (%s)",
		sch.FireTime, escape(sch.Location.String()),
		next.Format("Mon 2006-01-02 15:04"), humanize.RelTime(next, now, "ago", "from now"))
}

func invalidText(v *models.ValidationError) string {
	return "❌ " + escape(v.Error())
}
