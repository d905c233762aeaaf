// backend/internal/auth/service.go
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"elephant-quiz/internal/models"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidUser        = errors.New("username and password are required")
)

const tokenTTL = 24 * time.Hour

// UserStore is the persistence the service needs; *Repository satisfies it.
type UserStore interface {
	GetUserByUsername(username string) (*models.User, error)
	CreateUser(user *models.User) error
}

// Identity is the authenticated player carried in a request context.
type Identity struct {
	UserID   uint
	Username string
}

type Service struct {
	repo      UserStore
	jwtSecret []byte
	now       func() time.Time
}

func NewService(repo UserStore, jwtSecret string) *Service {
	return &Service{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}
}

func (s *Service) Login(username, password string) (string, error) {
	user, err := s.repo.GetUserByUsername(strings.TrimSpace(username))
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.IssueToken(Identity{UserID: user.ID, Username: user.Username})
}

func (s *Service) Register(user *models.User) error {
	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" || user.Password == "" {
		return ErrInvalidUser
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.Password = string(hashedPassword)
	return s.repo.CreateUser(user)
}

// IssueToken signs an HS256 token for id.
func (s *Service) IssueToken(id Identity) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  id.UserID,
		"username": id.Username,
		"exp":      s.now().Add(tokenTTL).Unix(),
	})
	return token.SignedString(s.jwtSecret)
}

// ParseToken validates a token and returns the identity it carries.
func (s *Service) ParseToken(raw string) (Identity, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return Identity{}, ErrInvalidToken
	}
	username, _ := claims["username"].(string)
	return Identity{UserID: uint(userID), Username: username}, nil
}
