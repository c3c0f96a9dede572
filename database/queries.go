package database

const (
	insertContactMessage = `
		INSERT INTO contact_messages (name, email, subject, message, vin, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	selectRecentContactMessages = `
		SELECT id, name, email, subject, message, vin, created_at
		FROM contact_messages
		ORDER BY created_at DESC
		LIMIT ?
	`
)
