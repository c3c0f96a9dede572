package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"vinreport-web/models"
)

type DatabaseConfig struct {
	Host     string
	User     string
	Password string
	DBName   string
}

type Connection struct {
	db *sql.DB
}

func NewConnection(config DatabaseConfig) (*Connection, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true",
		config.User, config.Password, config.Host, config.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	conn := &Connection{db: db}

	if err := conn.ensureConnection(); err != nil {
		db.Close()
		return nil, err
	}

	return conn, nil
}

// NewWithDB wraps an already opened handle.
func NewWithDB(db *sql.DB) *Connection {
	return &Connection{db: db}
}

func (c *Connection) ensureConnection() error {
	for retries := 0; retries < 3; retries++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := c.db.PingContext(ctx)
		cancel()

		if err == nil {
			return nil
		}

		log.Printf("Database ping failed (attempt %d/3): %v", retries+1, err)
		time.Sleep(time.Second * time.Duration(retries+1))
	}
	return fmt.Errorf("failed to establish database connection after 3 attempts")
}

func (c *Connection) Close() error {
	return c.db.Close()
}

func (c *Connection) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// SaveContactMessage stores msg and returns its row id.
func (c *Connection) SaveContactMessage(ctx context.Context, msg models.ContactMessage) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	result, err := c.db.ExecContext(ctx, insertContactMessage,
		msg.Name,
		msg.Email,
		msg.Subject,
		msg.Message,
		nullIfEmpty(msg.VIN),
		msg.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("error saving contact message: %v", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("error getting contact message id: %v", err)
	}

	log.Printf("Saved contact message %d from %s", id, msg.Email)
	return id, nil
}

// RecentContactMessages returns up to limit messages, newest first.
func (c *Connection) RecentContactMessages(ctx context.Context, limit int) ([]models.ContactMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, selectRecentContactMessages, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing contact messages: %v", err)
	}
	defer rows.Close()

	var messages []models.ContactMessage
	for rows.Next() {
		var msg models.ContactMessage
		var vin sql.NullString
		if err := rows.Scan(&msg.ID, &msg.Name, &msg.Email, &msg.Subject, &msg.Message, &vin, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning contact message: %v", err)
		}
		msg.VIN = vin.String
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
