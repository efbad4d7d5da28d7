package friends

import (
	"context"
	"database/sql"
	"fmt"
)

type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// FriendProfile joins the friendship row with the friend's public profile.
type FriendProfile struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
	CreatedAt   string `json:"created_at"`
}

func (r *Repo) Add(ctx context.Context, userID, friendID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO friendships (user_id, friend_id) VALUES (?, ?)
		 ON CONFLICT (user_id, friend_id) DO NOTHING`,
		userID, friendID,
	)
	if err != nil {
		return fmt.Errorf("add friendship: %w", err)
	}
	return nil
}

func (r *Repo) Remove(ctx context.Context, userID, friendID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM friendships WHERE user_id = ? AND friend_id = ?`,
		userID, friendID,
	)
	if err != nil {
		return fmt.Errorf("remove friendship: %w", err)
	}
	return nil
}

func (r *Repo) Exists(ctx context.Context, userID, friendID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM friendships WHERE user_id = ? AND friend_id = ?`,
		userID, friendID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check friendship: %w", err)
	}
	return true, nil
}

func (r *Repo) List(ctx context.Context, userID string) ([]FriendProfile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.username, u.display_name, u.photo_url, f.created_at
		 FROM friendships f
		 JOIN users u ON u.id = f.friend_id
		 WHERE f.user_id = ?
		 ORDER BY u.display_name, u.username`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()

	var out []FriendProfile
	for rows.Next() {
		var p FriendProfile
		if err := rows.Scan(&p.UserID, &p.Username, &p.DisplayName, &p.PhotoURL, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
