package services

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nlwealth/advisorforms/internal/models"
)

// AdminStore abstracts persistence for admin accounts.
type AdminStore interface {
	GetAdmin(id int) (*models.Admin, error)
	GetAdminByUsername(username string) (*models.Admin, error)
	InsertAdmin(a *models.Admin) (*models.Admin, error)
	UpdateAdmin(a *models.Admin) (*models.Admin, error)
}

// ClientLookupStore resolves clients for passcode login.
type ClientLookupStore interface {
	GetClientByNumber(clientNumber string) (*models.Client, error)
}

// TokenSigner mints a session token for an authenticated principal. sid is a
// fresh per-login session id; the submission guard is keyed by it, so logging
// in again naturally resets the guard.
type TokenSigner func(uid int, kind, sid string, ttl time.Duration) (string, error)

// passwordMaxAge forces an admin password change twice a year.
const passwordMaxAge = 6 * 30 * 24 * time.Hour

var clientNumberRe = regexp.MustCompile(`^\d{7}$`)

// AuthService authenticates admins (username/password) and clients
// (seven-digit client number) and issues session tokens.
type AuthService struct {
	admins    AdminStore
	clients   ClientLookupStore
	signToken TokenSigner
	now       func() time.Time
	sessionID func() string
	tokenTTL  time.Duration
}

type AuthResult struct {
	Token           string
	AdminID         int
	ClientID        int
	PasswordExpired bool
}

func NewAuthService(admins AdminStore, clients ClientLookupStore, signer TokenSigner) *AuthService {
	return &AuthService{
		admins:    admins,
		clients:   clients,
		signToken: signer,
		now:       func() time.Time { return time.Now().UTC() },
		sessionID: func() string { return shortID(16) },
		tokenTTL:  12 * time.Hour,
	}
}

// AdminLogin verifies the credentials and issues an admin session token.
// The result flags an expired password so the UI can force a change.
func (s *AuthService) AdminLogin(username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, NewInvalidError("username/password required")
	}
	admin, err := s.admins.GetAdminByUsername(username)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(admin.PassHash, []byte(password)); err != nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	expired, err := s.checkPasswordExpiration(admin)
	if err != nil {
		return nil, err
	}
	token, err := s.signToken(admin.ID, "admin", s.sessionID(), s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, AdminID: admin.ID, PasswordExpired: expired}, nil
}

// ClientLogin authenticates a client by their seven-digit client number and
// issues a client session token with a fresh session id.
func (s *AuthService) ClientLogin(clientNumber string) (*AuthResult, error) {
	clientNumber = strings.TrimSpace(clientNumber)
	if !clientNumberRe.MatchString(clientNumber) {
		return nil, NewInvalidError("client number must be exactly 7 digits")
	}
	client, err := s.clients.GetClientByNumber(clientNumber)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, NewUnauthorizedError("invalid client number")
	}
	token, err := s.signToken(client.ID, "client", s.sessionID(), s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ClientID: client.ID}, nil
}

// CreateAdmin registers a back-office account with a bcrypt-hashed password.
func (s *AuthService) CreateAdmin(username, password, name string) (*models.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, NewInvalidError("username required")
	}
	if len(password) < 8 {
		return nil, NewInvalidError("password must be at least 8 characters")
	}
	existing, err := s.admins.GetAdminByUsername(username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("username already exists")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.admins.InsertAdmin(&models.Admin{
		Username:           username,
		Name:               name,
		PassHash:           hash,
		LastPasswordChange: s.now(),
	})
}

// ChangePassword rotates an admin's password after verifying the current one.
func (s *AuthService) ChangePassword(adminID int, current, next string) error {
	if len(next) < 8 {
		return NewInvalidError("new password must be at least 8 characters")
	}
	admin, err := s.admins.GetAdmin(adminID)
	if err != nil {
		return err
	}
	if admin == nil {
		return NewNotFoundError("admin not found")
	}
	if err := bcrypt.CompareHashAndPassword(admin.PassHash, []byte(current)); err != nil {
		return NewUnauthorizedError("current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin.PassHash = hash
	admin.LastPasswordChange = s.now()
	admin.PasswordExpired = false
	_, err = s.admins.UpdateAdmin(admin)
	return err
}

func (s *AuthService) checkPasswordExpiration(admin *models.Admin) (bool, error) {
	if admin.PasswordExpired {
		return true, nil
	}
	if !admin.LastPasswordChange.IsZero() && s.now().Sub(admin.LastPasswordChange) > passwordMaxAge {
		admin.PasswordExpired = true
		if _, err := s.admins.UpdateAdmin(admin); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (s *AuthService) TokenTTL() time.Duration { return s.tokenTTL }
