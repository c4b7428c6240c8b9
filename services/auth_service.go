package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yummyfi/yummyfi-backend/models"
	"github.com/yummyfi/yummyfi-backend/utils"
)

// Identity is who a session token belongs to.
type Identity struct {
	UID         uint   `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Admin       bool   `json:"admin"`
}

// Session is a signed-in identity plus its bearer token.
type Session struct {
	Identity
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// IsAdminEmail reports whether email is on the allow-list. Case and
// surrounding space are ignored.
func IsAdminEmail(email string, allowList []string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, allowed := range allowList {
		if strings.ToLower(strings.TrimSpace(allowed)) == email {
			return true
		}
	}
	return false
}

// AuthService signs staff in and out. Admin rights come only from the email
// allow-list, checked at sign-in and again on every request.
type AuthService struct {
	db        *gorm.DB
	tokens    *utils.TokenIssuer
	blacklist *utils.TokenBlacklist
	admins    []string
	log       logrus.FieldLogger
}

func NewAuthService(db *gorm.DB, tokens *utils.TokenIssuer, blacklist *utils.TokenBlacklist, admins []string, log logrus.FieldLogger) *AuthService {
	return &AuthService{db: db, tokens: tokens, blacklist: blacklist, admins: admins, log: log}
}

func (a *AuthService) AdminEmails() []string { return a.admins }

// SignIn checks the password and issues a token.
func (a *AuthService) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, validationError("email and password are required")
	}

	var user models.User
	err := a.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Session{}, ErrUnauthorized
	}
	if err != nil {
		return Session{}, fmt.Errorf("look up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return Session{}, ErrUnauthorized
	}

	id := Identity{
		UID:         user.ID,
		Email:       user.Email,
		DisplayName: user.Name,
		Admin:       IsAdminEmail(user.Email, a.admins),
	}
	token, expires, err := a.tokens.GenerateToken(id.UID, id.Email, id.DisplayName, id.Admin)
	if err != nil {
		return Session{}, err
	}

	a.log.WithFields(logrus.Fields{"email": id.Email, "admin": id.Admin}).Info("Login successful")
	return Session{Identity: id, Token: token, ExpiresAt: expires.Unix()}, nil
}

// Authenticate resolves a bearer token. Signed-out tokens are rejected.
func (a *AuthService) Authenticate(token string) (Identity, error) {
	if token == "" || a.blacklist.Contains(token) {
		return Identity{}, utils.ErrInvalidToken
	}
	claims, err := a.tokens.ParseToken(token)
	if err != nil {
		return Identity{}, err
	}
	// The allow-list is consulted again so removing an address takes effect
	// before the token expires.
	return Identity{
		UID:         claims.UserID,
		Email:       claims.Email,
		DisplayName: claims.Name,
		Admin:       IsAdminEmail(claims.Email, a.admins),
	}, nil
}

// SignOut revokes token for the rest of its lifetime.
func (a *AuthService) SignOut(token string) error {
	claims, err := a.tokens.ParseToken(token)
	if err != nil {
		return err
	}
	a.blacklist.Add(token, claims.ExpiresAt.Time)
	a.log.WithField("email", claims.Email).Info("Logout successful")
	return nil
}

// CreateUser registers a staff account with a bcrypt-hashed password.
func (a *AuthService) CreateUser(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, validationError("name and email are required")
	}
	if len(password) < 8 {
		return nil, validationError("password must be at least 8 characters")
	}

	var count int64
	if err := a.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailInUse
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{Name: name, Email: email, Password: string(hashed)}
	if err := a.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	a.log.WithField("email", email).Info("New user registered")
	return user, nil
}
