package services

import (
	"fmt"
	"guild-chat/auth"
	"guild-chat/errors"
	"guild-chat/repositories"
	"time"
)

type IAuthService interface {
	Login(email, password string) (Token, error)
	Register(email, username, password string) (Token, error)
}

type AuthService struct {
	userRepository repositories.IUserRepository
	tokenDuration  time.Duration
}

type Token string

func NewAuthService(repo repositories.IUserRepository, tokenDuration time.Duration) IAuthService {
	return &AuthService{userRepository: repo, tokenDuration: tokenDuration}
}

func (s *AuthService) Register(email, username, password string) (Token, error) {
	valReq := auth.RegisterRequest{
		Email:    email,
		Username: username,
		Password: password,
	}

	// 1. Validate business rules (email format, password complexity)
	// before any expensive cryptographic operation.
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// 2. Hash the password using Argon2id.
	// Done here to keep the repository unaware of plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	userID, err := s.userRepository.CreateUser(email, username, hashedPassword)
	if err != nil {
		return "", err // Propagates ErrUserAlreadyExists if email is taken
	}

	token, err := auth.GenerateToken(userID, username, s.tokenDuration)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}

func (s *AuthService) Login(email, password string) (Token, error) {
	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		// Generic error to prevent user enumeration attacks
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.Username, s.tokenDuration)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}
