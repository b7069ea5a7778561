package planning

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted account password.
const MinPasswordLength = 8

// AccountInput is an account form as submitted. Password and Confirm are
// plain text and never stored.
type AccountInput struct {
	LastName  string
	FirstName string
	Email     string
	Username  string
	Password  string
	Confirm   string
	Kind      AccountKind
}

func (in AccountInput) validate() error {
	required := []struct{ field, value string }{
		{"last_name", in.LastName},
		{"first_name", in.FirstName},
		{"email", in.Email},
		{"username", in.Username},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return invalid(r.field, "required")
		}
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return invalid("email", "%q is not an email address", in.Email)
	}
	return validatePassword(in)
}

func validatePassword(in AccountInput) error {
	if in.Password != in.Confirm {
		return invalid("confirm", "passwords do not match")
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return invalid("password", "must be at least %d characters", MinPasswordLength)
	}
	lower := strings.ToLower(in.Password)
	for _, name := range []string{in.LastName, in.FirstName} {
		if n := strings.ToLower(strings.TrimSpace(name)); n != "" && strings.Contains(lower, n) {
			return invalid("password", "must not contain your name")
		}
	}
	return nil
}

func hashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", invalid("password", "too long")
		}
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches the account's stored hash.
func CheckPassword(a Account, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(plain)) == nil
}

// CreateAccount stores a new account. Usernames are unique and there is at
// most one administrator.
func (s *Service) CreateAccount(ctx context.Context, in AccountInput) (int64, error) {
	if in.Kind == "" {
		in.Kind = AccountUser
	}
	if in.Kind != AccountAdmin && in.Kind != AccountUser {
		return 0, invalid("kind", "unknown account kind %q", in.Kind)
	}
	if err := in.validate(); err != nil {
		return 0, err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return 0, err
	}
	acct := Account{
		LastName:     strings.TrimSpace(in.LastName),
		FirstName:    strings.TrimSpace(in.FirstName),
		Email:        strings.TrimSpace(in.Email),
		Username:     strings.TrimSpace(in.Username),
		PasswordHash: hash,
		Kind:         in.Kind,
	}

	var id int64
	err = s.Exec.Create(ctx, "create account", func(tx Tx) error {
		if err := checkUsernameFree(ctx, tx, acct.Username, 0); err != nil {
			return err
		}
		if acct.Kind == AccountAdmin {
			all, err := tx.ListAccounts(ctx, true)
			if err != nil {
				return err
			}
			for _, a := range all {
				if a.Kind == AccountAdmin {
					return invalid("kind", "an administrator account already exists")
				}
			}
		}
		id, err = tx.InsertAccount(ctx, acct)
		return err
	})
	return id, err
}

func checkUsernameFree(ctx context.Context, tx Tx, username string, self int64) error {
	existing, err := tx.GetAccountByUsername(ctx, username)
	switch {
	case err == nil && existing.ID != self:
		return invalid("username", "%q is taken", username)
	case err == nil, IsNotFound(err):
		return nil
	default:
		return err
	}
}

// UpdateAccount replaces an account's identity fields and password. The
// account kind does not change.
func (s *Service) UpdateAccount(ctx context.Context, id int64, in AccountInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return err
	}
	return s.Exec.Update(ctx, "update account", func(tx Tx) error {
		acct, err := tx.GetAccount(ctx, id)
		if err != nil {
			return err
		}
		username := strings.TrimSpace(in.Username)
		if err := checkUsernameFree(ctx, tx, username, id); err != nil {
			return err
		}
		acct.LastName = strings.TrimSpace(in.LastName)
		acct.FirstName = strings.TrimSpace(in.FirstName)
		acct.Email = strings.TrimSpace(in.Email)
		acct.Username = username
		acct.PasswordHash = hash
		return tx.UpdateAccount(ctx, acct)
	})
}

// DeleteAccount removes a user account. The administrator account cannot
// be deleted.
func (s *Service) DeleteAccount(ctx context.Context, id int64) error {
	return s.Exec.Update(ctx, "delete account", func(tx Tx) error {
		acct, err := tx.GetAccount(ctx, id)
		if err != nil {
			return err
		}
		if acct.Kind == AccountAdmin {
			return invalid("id", "the administrator account cannot be deleted")
		}
		return tx.DeleteAccount(ctx, id)
	})
}

// ListAccounts returns the non-administrator accounts.
func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	out, err := s.Store.ListAccounts(ctx, false)
	if err != nil {
		logRead("list accounts", err)
		return []Account{}, err
	}
	return out, nil
}

func (s *Service) GetAccount(ctx context.Context, id int64) (Account, error) {
	a, err := s.Store.GetAccount(ctx, id)
	if err != nil {
		logRead("get account", err)
	}
	return a, err
}
