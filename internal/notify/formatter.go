package notify

import (
	"html"
	"strings"
)

// MessageInput holds the fields rendered into a notification.
type MessageInput struct {
	Action      string
	TraineeName string
	Status      string
	ActorName   string
	Comment     string
}

// FormatReferralMessage renders the Telegram HTML body. Every field is
// escaped before it is placed inside markup.
func FormatReferralMessage(in MessageInput) string {
	var b strings.Builder
	b.WriteString("🔔 <b>تحديث جديد في نظام الإحالة</b>\n\n")
	b.WriteString("👤 <b>الإجراء:</b> " + html.EscapeString(in.Action) + "\n")
	b.WriteString("👨‍🎓 <b>المتدرب:</b> " + html.EscapeString(in.TraineeName) + "\n")
	b.WriteString("🔄 <b>الحالة الحالية:</b> " + html.EscapeString(in.Status) + "\n")
	b.WriteString("✍️ <b>بواسطة:</b> " + html.EscapeString(in.ActorName) + "\n")
	if comment := strings.TrimSpace(in.Comment); comment != "" {
		b.WriteString("\n📝 <b>ملاحظات:</b>\n" + html.EscapeString(comment) + "\n")
	}
	b.WriteString("\n📅 <i>تم الإرسال تلقائياً من نظام إحالة المتدربين</i>")
	return b.String()
}
