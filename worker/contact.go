package worker

import (
	"fmt"
	"time"

	"vinreport-web/models"
)

// ContactJob flattens msg into queue job data.
func ContactJob(msg models.ContactMessage) map[string]interface{} {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	return map[string]interface{}{
		"name":       msg.Name,
		"email":      msg.Email,
		"subject":    msg.Subject,
		"message":    msg.Message,
		"vin":        msg.VIN,
		"created_at": msg.CreatedAt.Format(time.RFC3339),
	}
}

func ContactFromJob(data map[string]interface{}) (models.ContactMessage, error) {
	str := func(key string) string {
		s, _ := data[key].(string)
		return s
	}

	msg := models.ContactMessage{
		Name:    str("name"),
		Email:   str("email"),
		Subject: str("subject"),
		Message: str("message"),
		VIN:     str("vin"),
	}
	if msg.Email == "" || msg.Message == "" {
		return models.ContactMessage{}, fmt.Errorf("invalid contact message in job data")
	}

	if ts := str("created_at"); ts != "" {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return models.ContactMessage{}, fmt.Errorf("invalid created_at in job data: %v", err)
		}
		msg.CreatedAt = t
	}
	return msg, nil
}
