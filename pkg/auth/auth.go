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
	"crypto/rand"
	"encoding/hex"
	"errors"

	"github.com/yomguy/servestream-sub001/pkg/config"
)

const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingSecret      = errors.New("secret key is required")
)

// Authority checks credentials and issues the tokens of the API.
type Authority struct {
	secretKey      []byte
	expirationTime int
	users          UserStore
}

func New(cfg config.AuthConfig, users UserStore) (*Authority, error) {
	if len(cfg.SecretKey) == 0 {
		return nil, ErrMissingSecret
	}
	if cfg.ExpirationTime <= 0 {
		cfg.ExpirationTime = 24
	}
	return &Authority{
		secretKey:      []byte(cfg.SecretKey),
		expirationTime: cfg.ExpirationTime,
		users:          users,
	}, nil
}

func (a *Authority) CheckCredentials(username, password string) bool {
	return a.users.Authenticate(username, password)
}

func (a *Authority) Users() UserStore {
	return a.users
}

// GenerateSecret returns a random key suitable for signing tokens.
func GenerateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
