/*
Copyright © 2024 Alexandre Pires

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package auth

import (
	"errors"
	"sort"
	"sync"

	"github.com/yomguy/servestream-sub001/pkg/config"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidRole  = errors.New("invalid role")
)

type UserView struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type UserStore interface {
	Authenticate(username, password string) bool
	AddUser(username, password, role string) error
	RemoveUser(username string) error
	ChangePassword(username, password string) error
	GetRole(username string) (string, error)
	SetRole(username, role string) error
	GetUsers() ([]UserView, error)
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func validRole(role string) bool {
	return role == RoleAdmin || role == RoleViewer
}

// ConfigUserStore keeps users in the auth section of the server
// configuration and saves the file on every change.
type ConfigUserStore struct {
	mu  sync.Mutex
	cfg *config.ServerConfig
}

func NewConfigUserStore(cfg *config.ServerConfig) *ConfigUserStore {
	return &ConfigUserStore{cfg: cfg}
}

func (s *ConfigUserStore) find(users []config.User, username string) int {
	for i, u := range users {
		if u.Username == username {
			return i
		}
	}
	return -1
}

func (s *ConfigUserStore) update(fn func(auth *config.AuthConfig) error) error {
	auth := s.cfg.GetAuth()
	users := make([]config.User, len(auth.Users))
	copy(users, auth.Users)
	auth.Users = users

	if err := fn(&auth); err != nil {
		return err
	}
	s.cfg.SetAuth(auth)
	return s.cfg.Save()
}

func (s *ConfigUserStore) Authenticate(username, password string) bool {
	s.mu.Lock()
	users := s.cfg.GetAuth().Users
	i := s.find(users, username)
	s.mu.Unlock()
	if i < 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(users[i].Password), []byte(password)) == nil
}

func (s *ConfigUserStore) AddUser(username, password, role string) error {
	if role == "" {
		role = RoleViewer
	}
	if !validRole(role) {
		return ErrInvalidRole
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(func(auth *config.AuthConfig) error {
		if s.find(auth.Users, username) >= 0 {
			return ErrUserExists
		}
		auth.Users = append(auth.Users, config.User{Username: username, Password: hash, Role: role})
		return nil
	})
}

func (s *ConfigUserStore) RemoveUser(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(func(auth *config.AuthConfig) error {
		i := s.find(auth.Users, username)
		if i < 0 {
			return ErrUserNotFound
		}
		auth.Users = append(auth.Users[:i], auth.Users[i+1:]...)
		return nil
	})
}

func (s *ConfigUserStore) ChangePassword(username, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(func(auth *config.AuthConfig) error {
		i := s.find(auth.Users, username)
		if i < 0 {
			return ErrUserNotFound
		}
		auth.Users[i].Password = hash
		return nil
	})
}

func (s *ConfigUserStore) GetRole(username string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := s.cfg.GetAuth().Users
	i := s.find(users, username)
	if i < 0 {
		return "", ErrUserNotFound
	}
	return users[i].Role, nil
}

func (s *ConfigUserStore) SetRole(username, role string) error {
	if !validRole(role) {
		return ErrInvalidRole
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(func(auth *config.AuthConfig) error {
		i := s.find(auth.Users, username)
		if i < 0 {
			return ErrUserNotFound
		}
		auth.Users[i].Role = role
		return nil
	})
}

func (s *ConfigUserStore) GetUsers() ([]UserView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := s.cfg.GetAuth().Users
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, UserView{Username: u.Username, Role: u.Role})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Username < views[j].Username })
	return views, nil
}
