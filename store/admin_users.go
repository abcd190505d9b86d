package store

import "time"

// AdminUser is an operator account for the web API.
type AdminUser struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

func (db *DB) CreateAdminUser(username, passwordHash string) error {
	_, err := db.Exec(db.Q(`INSERT INTO admin_users (username, password_hash) VALUES (?, ?)`), username, passwordHash)
	return err
}

func (db *DB) GetAdminUser(username string) (*AdminUser, error) {
	u := &AdminUser{}
	var created any
	row := db.QueryRow(db.Q(`SELECT id, username, password_hash, created_at FROM admin_users WHERE username=?`), username)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created); err != nil {
		return nil, err
	}
	u.CreatedAt = parseTime(created)
	return u, nil
}

// AdminUserExists reports whether any operator account has been created.
func (db *DB) AdminUserExists() (bool, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM admin_users`).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (db *DB) SetAdminPassword(username, passwordHash string) error {
	_, err := db.Exec(db.Q(`UPDATE admin_users SET password_hash=? WHERE username=?`), passwordHash, username)
	return err
}
