package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tgienger/taskmate/internal/models"
	"github.com/tgienger/taskmate/internal/task"
)

var _ task.Store = (*DB)(nil)

const taskColumns = `id, title, description, priority, category, due_date,
	created_at, modified_at, completed, completed_at, notification_id`

// Insert creates a new task and returns its generated ID
func (db *DB) Insert(ctx context.Context, t models.Task) (string, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, t.Title, t.Description, string(t.Priority), nullCategory(t.Category), nullTime(t.DueDate),
		formatTime(t.CreatedAt), formatTime(t.ModifiedAt), t.Completed, nullTime(t.CompletedAt),
		nullString(t.NotificationID))
	if err != nil {
		return "", fmt.Errorf("insert task: %w", err)
	}

	db.publish(ctx)
	return id, nil
}

// Get retrieves a task by ID
func (db *DB) Get(ctx context.Context, id string) (*models.Task, error) {
	row := db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, task.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListTasks returns all tasks in insertion order
func (db *DB) ListTasks(ctx context.Context) ([]models.Task, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// Patch applies the set fields of p to a task
func (db *DB) Patch(ctx context.Context, id string, p models.Patch) error {
	if p.Empty() {
		return nil
	}

	var sets []string
	var args []interface{}
	set := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if p.Title != nil {
		set("title", *p.Title)
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	if p.Priority != nil {
		set("priority", string(*p.Priority))
	}
	if p.Category != nil {
		set("category", nullCategory(*p.Category))
	}
	if p.DueDate != nil {
		set("due_date", formatTime(*p.DueDate))
	}
	if p.ModifiedAt != nil {
		set("modified_at", formatTime(*p.ModifiedAt))
	}
	if p.Completed != nil {
		set("completed", *p.Completed)
	}
	if p.CompletedAt.Set {
		set("completed_at", nullTime(p.CompletedAt.Value))
	}
	if p.NotificationID.Set {
		set("notification_id", nullString(p.NotificationID.Value))
	}

	args = append(args, id)
	result, err := db.ExecContext(ctx,
		"UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return task.ErrNotFound
	}

	db.publish(ctx)
	return nil
}

// Delete deletes a task
func (db *DB) Delete(ctx context.Context, id string) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	db.publish(ctx)
	return nil
}

// ClearNotification drops a fired reminder handle from whichever task holds
// it. The task's modification time is left alone.
func (db *DB) ClearNotification(ctx context.Context, handle string) error {
	result, err := db.ExecContext(ctx,
		"UPDATE tasks SET notification_id = NULL WHERE notification_id = ?", handle)
	if err != nil {
		return fmt.Errorf("clear notification: %w", err)
	}
	if n, _ := result.RowsAffected(); n > 0 {
		db.publish(ctx)
	}
	return nil
}

// Subscribe registers fn for snapshots and delivers the current one
// immediately. fn runs on the writer's goroutine and must not write to the
// store.
func (db *DB) Subscribe(ctx context.Context, fn task.SnapshotFunc) (func(), error) {
	db.feed.Lock()
	defer db.feed.Unlock()

	tasks, err := db.ListTasks(ctx)
	if err != nil {
		return nil, err
	}

	db.mu.Lock()
	id := db.nextSub
	db.nextSub++
	db.subs[id] = fn
	db.mu.Unlock()

	fn(tasks)

	stop := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			db.mu.Lock()
			delete(db.subs, id)
			db.mu.Unlock()
			close(stop)
		})
	}
	if done := ctx.Done(); done != nil {
		go func() {
			select {
			case <-done:
				cancel()
			case <-stop:
			}
		}()
	}
	return cancel, nil
}

// publish sends a fresh snapshot to every subscriber.
func (db *DB) publish(ctx context.Context) {
	db.feed.Lock()
	defer db.feed.Unlock()

	db.mu.Lock()
	if len(db.subs) == 0 {
		db.mu.Unlock()
		return
	}
	fns := make([]task.SnapshotFunc, 0, len(db.subs))
	for _, fn := range db.subs {
		fns = append(fns, fn)
	}
	db.mu.Unlock()

	tasks, err := db.ListTasks(context.WithoutCancel(ctx))
	if err != nil {
		db.log.Error("snapshot failed", zap.Error(err))
		return
	}
	for _, fn := range fns {
		fn(tasks)
	}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanTask reads a row, applying the read-time defaults for records written
// before category and completion existed.
func scanTask(s scanner) (*models.Task, error) {
	var (
		t                         models.Task
		priority                  string
		category, due, modified   sql.NullString
		completedAt, notification sql.NullString
		completed                 sql.NullBool
		created                   string
	)
	err := s.Scan(&t.ID, &t.Title, &t.Description, &priority, &category, &due,
		&created, &modified, &completed, &completedAt, &notification)
	if err != nil {
		return nil, err
	}

	t.Priority = models.Priority(priority)
	t.Category = models.Category(category.String)
	t.Completed = completed.Valid && completed.Bool

	if t.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	if modified.Valid {
		if t.ModifiedAt, err = parseTime(modified.String); err != nil {
			return nil, fmt.Errorf("modified_at: %w", err)
		}
	}
	if t.DueDate, err = parseNullTime(due); err != nil {
		return nil, fmt.Errorf("due_date: %w", err)
	}
	if t.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return nil, fmt.Errorf("completed_at: %w", err)
	}
	if notification.Valid {
		h := notification.String
		t.NotificationID = &h
	}
	return &t, nil
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullCategory(c models.Category) sql.NullString {
	if c == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(c), Valid: true}
}
