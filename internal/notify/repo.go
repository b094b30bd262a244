package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Notification struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	Link          string    `json:"link"`
	ReferenceID   string    `json:"reference_id"`
	ReferenceType string    `json:"reference_type"`
	CreatedAt     time.Time `json:"created_at"`
}

// UserNotification is one subject's copy of a notification with its read
// state.
type UserNotification struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	Read         bool         `json:"read"`
	ReadAt       *time.Time   `json:"read_at,omitempty"`
	Notification Notification `json:"notification"`
}

var ErrNotFound = errors.New("notification introuvable")

type Repo struct{ DB *pgxpool.Pool }

// Create stores one notification and fans it out to every recipient in a
// single transaction.
func (r *Repo) Create(ctx context.Context, ev Event, userIDs []string) (Notification, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Notification{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n := Notification{
		ID:            uuid.NewString(),
		Kind:          ev.Kind,
		Title:         ev.Title,
		Message:       ev.Message,
		Link:          ev.Link,
		ReferenceID:   ev.ReferenceID,
		ReferenceType: ev.ReferenceType,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO notifications(id, kind, title, message, link, reference_id, reference_type)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		n.ID, n.Kind, n.Title, n.Message, n.Link, n.ReferenceID, n.ReferenceType,
	).Scan(&n.CreatedAt)
	if err != nil {
		return Notification{}, err
	}

	for _, uid := range userIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO user_notifications(id, notification_id, user_id)
			VALUES ($1,$2,$3)`,
			uuid.NewString(), n.ID, uid); err != nil {
			return Notification{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Notification{}, err
	}
	return n, nil
}

// ListByUser returns a user's notifications, newest first.
func (r *Repo) ListByUser(ctx context.Context, userID string) ([]UserNotification, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT un.id, un.user_id, un.read, un.read_at,
		       n.id, n.kind, n.title, n.message, n.link, n.reference_id, n.reference_type, n.created_at
		FROM user_notifications un
		JOIN notifications n ON n.id = un.notification_id
		WHERE un.user_id = $1
		ORDER BY n.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserNotification
	for rows.Next() {
		var un UserNotification
		n := &un.Notification
		if err := rows.Scan(&un.ID, &un.UserID, &un.Read, &un.ReadAt,
			&n.ID, &n.Kind, &n.Title, &n.Message, &n.Link, &n.ReferenceID, &n.ReferenceType, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, un)
	}
	return out, rows.Err()
}

// MarkRead flags one user notification as read.
func (r *Repo) MarkRead(ctx context.Context, userNotificationID string) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE user_notifications SET read=true, read_at=now()
		WHERE id=$1 AND read=false`, userNotificationID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
