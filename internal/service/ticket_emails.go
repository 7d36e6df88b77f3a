package service

import "fmt"

// ticketEmail is a rendered transactional email.
type ticketEmail struct {
	subject string
	html    string
}

var topicLabels = map[string]map[string]string{
	"en": {"general": "General Question", "transactions": "Transaction Issue", "account": "Account Help", "security": "Security", "other": "Other"},
	"es": {"general": "Pregunta General", "transactions": "Transacciones", "account": "Cuenta", "security": "Seguridad", "other": "Otro"},
}

func topicLabel(topic string, language string) string {
	labels, ok := topicLabels[language]
	if !ok {
		labels = topicLabels["en"]
	}
	if label, found := labels[topic]; found {
		return label
	}
	return topic
}

// confirmationEmail acknowledges a freshly created ticket.
func confirmationEmail(ticketID string, topic string, language string) ticketEmail {
	if language == "es" {
		return ticketEmail{
			subject: fmt.Sprintf("✅ Ticket %s recibido", ticketID),
			html: renderEmailCard(
				"¡Recibimos tu mensaje!",
				"Te responderemos lo antes posible",
				ticketID,
				fmt.Sprintf("Categoría: %s", topicLabel(topic, language)),
				"Tiempo estimado de respuesta: 24-48 horas",
				"OrbId Wallet • Soporte"),
		}
	}
	return ticketEmail{
		subject: fmt.Sprintf("✅ Ticket %s received", ticketID),
		html: renderEmailCard(
			"We got your message!",
			"We'll get back to you as soon as possible",
			ticketID,
			fmt.Sprintf("Category: %s", topicLabel(topic, language)),
			"Expected response time: 24-48 hours",
			"OrbId Wallet • Support"),
	}
}

// replyEmail notifies the reporter of a new support reply.
func replyEmail(ticketID string, replyMessage string, language string) ticketEmail {
	if language == "es" {
		return ticketEmail{
			subject: fmt.Sprintf("💬 Respuesta a tu ticket %s", ticketID),
			html: renderEmailCard(
				"Tienes una respuesta",
				"Nuestro equipo ha respondido a tu ticket",
				ticketID,
				replyMessage,
				"Responde a este email para continuar la conversación",
				"OrbId Wallet • Soporte"),
		}
	}
	return ticketEmail{
		subject: fmt.Sprintf("💬 Reply to your ticket %s", ticketID),
		html: renderEmailCard(
			"You have a reply",
			"Our team has responded to your ticket",
			ticketID,
			replyMessage,
			"Reply to this email to continue the conversation",
			"OrbId Wallet • Support"),
	}
}

// resolvedEmail announces the ticket resolution, with the final reply if any.
func resolvedEmail(ticketID string, adminReply string, language string) ticketEmail {
	if language == "es" {
		body := adminReply
		if body == "" {
			body = "Tu problema ha sido resuelto satisfactoriamente."
		}
		return ticketEmail{
			subject: fmt.Sprintf("✅ Ticket %s resuelto", ticketID),
			html: renderEmailCard(
				"¡Problema resuelto!",
				"Tu ticket ha sido atendido",
				ticketID,
				body,
				"Gracias por tu paciencia",
				"OrbId Wallet • Soporte"),
		}
	}
	body := adminReply
	if body == "" {
		body = "Your issue has been resolved."
	}
	return ticketEmail{
		subject: fmt.Sprintf("✅ Ticket %s resolved", ticketID),
		html: renderEmailCard(
			"Issue resolved!",
			"Your ticket has been taken care of",
			ticketID,
			body,
			"Thank you for your patience",
			"OrbId Wallet • Support"),
	}
}

// renderEmailCard produces the shared dark-card layout used by every
// ticket email.
func renderEmailCard(title string, subtitle string, ticketID string, body string, note string, footer string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="margin:0;padding:0;background:#000;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;">
<table width="100%%" cellpadding="0" cellspacing="0" style="background:#000;padding:32px 16px;">
<tr><td align="center">
<table width="100%%" style="max-width:480px;" cellpadding="0" cellspacing="0">
  <tr><td style="background:#111;border-radius:24px;padding:40px 32px;">
    <h1 style="margin:0 0 8px;color:#fff;font-size:28px;font-weight:700;text-align:center;">%s</h1>
    <p style="margin:0 0 32px;color:#888;font-size:16px;text-align:center;">%s</p>
    <div style="background:#1a1a1a;border-radius:16px;padding:24px;margin-bottom:24px;text-align:center;border:1px solid #333;">
      <p style="margin:0;color:#fff;font-size:24px;font-weight:700;font-family:'SF Mono',Monaco,monospace;letter-spacing:2px;">%s</p>
    </div>
    <div style="background:#1a1a1a;border-radius:16px;padding:20px;margin-bottom:24px;border:1px solid #333;">
      <p style="margin:0;color:#fff;font-size:16px;">%s</p>
    </div>
    <p style="margin:0;padding:16px;background:linear-gradient(135deg,rgba(236,72,153,0.15),rgba(168,85,247,0.15));border-radius:12px;color:#f472b6;font-size:14px;text-align:center;">%s</p>
  </td></tr>
  <tr><td style="padding-top:24px;text-align:center;">
    <p style="margin:0;color:#444;font-size:12px;">%s</p>
  </td></tr>
</table>
</td></tr>
</table>
</body>
</html>`, title, subtitle, ticketID, body, note, footer)
}
