package server

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/storkych/ccj-frontend-sub000/credentials"
	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt cost used for stub passwords. Tests lower it.
var HashCost = bcrypt.DefaultCost

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
)

type User struct {
	ID           string
	Email        string
	Name         string
	Role         string
	PasswordHash string
}

func (u *User) SessionUser() *credentials.SessionUser {
	return &credentials.SessionUser{
		ID:    u.ID,
		Role:  u.Role,
		Name:  u.Name,
		Email: u.Email,
	}
}

// UserDirectory is the stub's in-memory account list.
type UserDirectory struct {
	mu      sync.RWMutex
	byEmail map[string]*User
	byID    map[string]*User
}

func NewUserDirectory() *UserDirectory {
	return &UserDirectory{
		byEmail: make(map[string]*User),
		byID:    make(map[string]*User),
	}
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Add registers an account.
func (d *UserDirectory) Add(email, name, role, password string) (*User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	key := strings.ToLower(strings.TrimSpace(email))
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.byEmail[key]; ok {
		return nil, ErrUserExists
	}

	u := &User{
		ID:           uuid.NewString(),
		Email:        key,
		Name:         name,
		Role:         role,
		PasswordHash: hash,
	}
	d.byEmail[key] = u
	d.byID[u.ID] = u
	return u, nil
}

// Authenticate checks an email/password pair.
func (d *UserDirectory) Authenticate(email, password string) (*User, error) {
	d.mu.RLock()
	u, ok := d.byEmail[strings.ToLower(strings.TrimSpace(email))]
	d.mu.RUnlock()

	if !ok || !CheckPasswordHash(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (d *UserDirectory) Get(id string) (*User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byID[id]
	return u, ok
}
