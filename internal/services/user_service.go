package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/isdelr/userexport/internal/export"
	"github.com/isdelr/userexport/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// ErrUserNotFound is returned when no user matches a lookup.
var ErrUserNotFound = errors.New("user not found")

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	GetUserByName(ctx context.Context, name string) (models.User, error)
	CreateUser(ctx context.Context, name, realName, email, password string) (models.User, error)
	AddUserToGroup(ctx context.Context, id int64, group string) error
	GetUserGroups(ctx context.Context, id int64) ([]string, error)
	GetUserRights(ctx context.Context, id int64) ([]string, error)
	AuthenticateUser(ctx context.Context, name, password string) (models.User, error)
	TouchUser(ctx context.Context, id int64) error
}

// UserService provides business logic for user accounts.
type UserService struct {
	db          *sql.DB
	groupRights map[string][]string
}

// NewUserService creates a new UserService. groupRights maps a group name to
// the rights its members hold.
func NewUserService(db *sql.DB, groupRights map[string][]string) *UserService {
	return &UserService{db: db, groupRights: groupRights}
}

// now returns the current time as a 14-digit timestamp.
func now() string {
	return time.Now().UTC().Format(export.TimestampLayout)
}

func parseTimestamp(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(export.TimestampLayout, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

const userColumns = `user_id, user_name, user_real_name, user_email, user_password, user_registration, user_touched`

func scanUser(row *sql.Row) (models.User, error) {
	var (
		user                  models.User
		registration, touched sql.NullString
	)
	err := row.Scan(&user.ID, &user.Name, &user.RealName, &user.Email, &user.PasswordHash, &registration, &touched)
	if err != nil {
		return models.User{}, err
	}
	user.Registration = parseTimestamp(registration)
	user.Touched = parseTimestamp(touched)
	return user, nil
}

// GetUserByID retrieves a single user by their ID. The password hash is not returned.
func (s *UserService) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM "user" WHERE user_id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("user with ID %d: %w", id, ErrUserNotFound)
		}
		return models.User{}, err
	}
	user.PasswordHash = ""

	groups, err := s.GetUserGroups(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	user.Groups = groups
	return user, nil
}

// GetUserByName retrieves a single user by name, including the password hash.
func (s *UserService) GetUserByName(ctx context.Context, name string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM "user" WHERE user_name = ?`, name)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("user %q: %w", name, ErrUserNotFound)
		}
		return models.User{}, err
	}
	return user, nil
}

// CreateUser creates a new user, hashing their password.
func (s *UserService) CreateUser(ctx context.Context, name, realName, email, password string) (models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.User{}, fmt.Errorf("user name cannot be empty")
	}
	if password == "" {
		return models.User{}, fmt.Errorf("password cannot be empty")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	ts := now()
	stmt, err := s.db.PrepareContext(ctx, `INSERT INTO "user" (user_name, user_real_name, user_email, user_password, user_registration, user_touched, user_editcount) VALUES (?, ?, ?, ?, ?, ?, 0)`)
	if err != nil {
		return models.User{}, err
	}
	defer stmt.Close()

	res, err := stmt.ExecContext(ctx, name, realName, email, string(hashedPassword), ts, ts)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to insert user %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, err
	}

	registered, _ := time.Parse(export.TimestampLayout, ts)
	return models.User{
		ID:           id,
		Name:         name,
		RealName:     realName,
		Email:        email,
		Registration: registered,
		Touched:      registered,
	}, nil
}

// AddUserToGroup adds a user to a group. Adding twice is a no-op.
func (s *UserService) AddUserToGroup(ctx context.Context, id int64, group string) error {
	group = strings.TrimSpace(group)
	if group == "" {
		return fmt.Errorf("group cannot be empty")
	}
	_, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO user_groups (ug_user, ug_group) VALUES (?, ?)", id, group)
	return err
}

// GetUserGroups lists the groups a user belongs to, sorted by name.
func (s *UserService) GetUserGroups(ctx context.Context, id int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT ug_group FROM user_groups WHERE ug_user = ? ORDER BY ug_group", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// GetUserRights returns the union of rights granted by the user's groups.
func (s *UserService) GetUserRights(ctx context.Context, id int64) ([]string, error) {
	groups, err := s.GetUserGroups(ctx, id)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var rights []string
	for _, g := range groups {
		for _, r := range s.groupRights[g] {
			if !seen[r] {
				seen[r] = true
				rights = append(rights, r)
			}
		}
	}
	sort.Strings(rights)
	return rights, nil
}

// TouchUser updates the user's last-touched timestamp.
func (s *UserService) TouchUser(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE "user" SET user_touched = ? WHERE user_id = ?`, now(), id)
	return err
}

// AuthenticateUser verifies a user's credentials.
func (s *UserService) AuthenticateUser(ctx context.Context, name, password string) (models.User, error) {
	user, err := s.GetUserByName(ctx, name)
	if err != nil {
		return models.User{}, fmt.Errorf("authentication failed: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return models.User{}, fmt.Errorf("authentication failed: invalid password")
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}
