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
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func (a *Authority) createJWT(userID, role string) (string, error) {
	expirationTime := time.Now().Add(time.Hour * time.Duration(a.expirationTime))

	claims := jwt.MapClaims{
		"sub":  userID,                // Subject or user ID
		"exp":  expirationTime.Unix(), // Expiration time
		"iat":  time.Now().Unix(),     // Issued at time
		"role": role,                  // User role
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(a.secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (a *Authority) verifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Ensure the signing method is HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// CreateToken issues a token for a user whose password matches.
func (a *Authority) CreateToken(userID, password string) (string, error) {
	if !a.CheckCredentials(userID, password) {
		return "", ErrInvalidCredentials
	}
	role, err := a.users.GetRole(userID)
	if err != nil || role == "" {
		role = RoleViewer
	}
	return a.createJWT(userID, role)
}

func (a *Authority) VerifyToken(token string) bool {
	_, err := a.verifyJWT(token)
	return err == nil
}

func (a *Authority) GetRoleFromToken(token string) (string, error) {
	claims, err := a.verifyJWT(token)
	if err != nil {
		return "", err
	}
	if role, ok := claims["role"].(string); ok {
		return role, nil
	}
	return "", fmt.Errorf("role not found")
}

func (a *Authority) GetUserFromToken(token string) (string, error) {
	claims, err := a.verifyJWT(token)
	if err != nil {
		return "", err
	}
	if sub, ok := claims["sub"].(string); ok {
		return sub, nil
	}
	return "", fmt.Errorf("user id not found")
}
