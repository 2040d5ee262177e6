package db

import (
	"context"
	"fmt"
	"time"

	"github.com/tgienger/taskmate/internal/models"
)

// InsertReminder stores a pending reminder
func (db *DB) InsertReminder(ctx context.Context, r models.Reminder) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO reminders (handle, title, body, fire_at, fired, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.Handle, r.Content.Title, r.Content.Body, formatTime(r.FireAt), r.Fired, formatTime(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

// DeleteReminder removes a reminder. Unknown handles are not an error.
func (db *DB) DeleteReminder(ctx context.Context, handle string) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM reminders WHERE handle = ?", handle); err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

// DueReminders returns unfired reminders whose fire time is at or before now,
// oldest first.
func (db *DB) DueReminders(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT handle, title, body, fire_at, fired, created_at
		FROM reminders
		WHERE fired = 0 AND fire_at <= ?
		ORDER BY fire_at
	`, formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("query reminders: %w", err)
	}
	defer rows.Close()

	var reminders []models.Reminder
	for rows.Next() {
		var (
			r               models.Reminder
			fireAt, created string
		)
		if err := rows.Scan(&r.Handle, &r.Content.Title, &r.Content.Body, &fireAt, &r.Fired, &created); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		if r.FireAt, err = parseTime(fireAt); err != nil {
			return nil, fmt.Errorf("fire_at: %w", err)
		}
		if r.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("created_at: %w", err)
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// MarkReminderFired flags a reminder as delivered
func (db *DB) MarkReminderFired(ctx context.Context, handle string) error {
	if _, err := db.ExecContext(ctx, "UPDATE reminders SET fired = 1 WHERE handle = ?", handle); err != nil {
		return fmt.Errorf("mark reminder fired: %w", err)
	}
	return nil
}
