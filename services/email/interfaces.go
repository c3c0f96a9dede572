package email

import "vinreport-web/models"

type EmailSender interface {
	SendEmail(to, subject, body string) error
	SendContactMessage(to string, msg models.ContactMessage) error
}
