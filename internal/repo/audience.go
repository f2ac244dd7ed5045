package repo

import (
	"context"
	"database/sql"
)

// RoleAudience resolves the set of users who receive realtime inbox events:
// every distinct user holding one of the allow-listed roles, guests
// excluded. The role list is configuration, not code.
type RoleAudience struct {
	db    *sql.DB
	roles []string
}

func NewRoleAudience(db *sql.DB, roles []string) *RoleAudience {
	return &RoleAudience{db: db, roles: roles}
}

func (a *RoleAudience) Subscribers(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT DISTINCT user_id
		FROM user_roles
		WHERE role = ANY($1)
		  AND user_id <> 'Guest'
	`, a.roles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
