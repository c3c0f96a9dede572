package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"vinreport-web/models"
)

var contactEmailTemplate = template.Must(template.New("contact").Parse(`<!DOCTYPE html>
<html lang="en">
<body style="margin: 0; padding: 24px; background-color: #f9fafb; font-family: Arial, sans-serif;">
  <table role="presentation" cellspacing="0" cellpadding="0" border="0" width="600" style="max-width: 600px; background-color: #ffffff; border-radius: 8px;">
    <tr>
      <td style="padding: 24px;">
        <h2 style="color: #1d4ed8; margin: 0 0 16px 0;">New contact message</h2>
        <p><strong>From:</strong> {{.Name}} &lt;{{.Email}}&gt;</p>
        {{if .VIN}}<p><strong>VIN:</strong> {{.VIN}}</p>{{end}}
        <p><strong>Received:</strong> {{.CreatedAt.Format "2006-01-02 15:04 MST"}}</p>
        <p style="white-space: pre-wrap;">{{.Message}}</p>
      </td>
    </tr>
  </table>
</body>
</html>`))

func RenderContactEmail(msg models.ContactMessage) (string, error) {
	var buf bytes.Buffer
	if err := contactEmailTemplate.Execute(&buf, msg); err != nil {
		return "", fmt.Errorf("failed to render contact email: %w", err)
	}
	return buf.String(), nil
}

// contactSubject strips line breaks so visitor input cannot inject headers.
func contactSubject(msg models.ContactMessage) string {
	subject := msg.Subject
	if subject == "" {
		subject = "Website enquiry"
	}
	subject = strings.NewReplacer("\r", " ", "\n", " ").Replace(subject)
	return "[Contact] " + subject
}
