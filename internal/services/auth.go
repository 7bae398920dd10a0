package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"smartfleet-backend/internal/models"
	"smartfleet-backend/pkg/jwt"
)

type AuthService struct {
	userStore   UserStore
	driverStore DriverStore
	jwtUtil     *jwt.JWTUtil
	log         *logrus.Logger
}

func NewAuthService(userStore UserStore, driverStore DriverStore, jwtUtil *jwt.JWTUtil, log *logrus.Logger) *AuthService {
	return &AuthService{
		userStore:   userStore,
		driverStore: driverStore,
		jwtUtil:     jwtUtil,
		log:         log,
	}
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=admin driver"`
	Name     string `json:"name,omitempty"`
	License  string `json:"license,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User  *models.AuthUser `json:"user"`
	Token string           `json:"token"`
}

// Register creates the account. A driver-role user also gets a driver
// profile so they show up on the roster immediately.
func (s *AuthService) Register(req *RegisterRequest) (*models.AuthUser, error) {
	if existing, _ := s.userStore.FindByEmail(req.Email); existing != nil {
		return nil, fmt.Errorf("email %s already registered", req.Email)
	}
	if existing, _ := s.userStore.FindByUsername(req.Username); existing != nil {
		return nil, fmt.Errorf("username %s already taken", req.Username)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		Password:  string(hashed),
		Role:      req.Role,
		Status:    models.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.userStore.Create(user)
	if err != nil {
		return nil, err
	}

	if req.Role == models.RoleDriver {
		name := req.Name
		if name == "" {
			name = req.Username
		}
		driver := &models.Driver{
			UserID:    created.ID,
			Name:      name,
			License:   req.License,
			Status:    models.DriverStatusAvailable,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := s.driverStore.Create(driver); err != nil {
			return nil, fmt.Errorf("failed to create driver profile: %w", err)
		}
	}

	s.log.WithFields(logrus.Fields{
		"user": created.Username,
		"role": created.Role,
	}).Info("User registered")

	return toAuthUser(created), nil
}

func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	user, err := s.userStore.FindByEmail(req.Email)
	if err != nil {
		return nil, errors.New("invalid credentials")
	}

	if user.Status != models.UserStatusActive {
		return nil, errors.New("account is not active")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	if err := s.userStore.UpdateLastLogin(user.ID.Hex(), time.Now()); err != nil {
		s.log.WithError(err).WithField("user", user.Username).Warn("Failed to update last login")
	}

	token, err := s.jwtUtil.GenerateToken(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &LoginResponse{
		User:  toAuthUser(user),
		Token: token,
	}, nil
}

func (s *AuthService) RefreshToken(tokenString string) (string, error) {
	newToken, err := s.jwtUtil.RefreshToken(tokenString)
	if err != nil {
		return "", errors.New("failed to refresh token")
	}
	return newToken, nil
}

func (s *AuthService) GetUserProfile(userID string) (*models.AuthUser, error) {
	user, err := s.userStore.FindByID(userID)
	if err != nil {
		return nil, errors.New("user not found")
	}
	if user.Status != models.UserStatusActive {
		return nil, errors.New("account is not active")
	}
	return toAuthUser(user), nil
}

func (s *AuthService) ValidateToken(tokenString string) (*models.AuthUser, error) {
	claims, err := s.jwtUtil.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userStore.FindByID(claims.UserID)
	if err != nil {
		return nil, errors.New("user not found")
	}
	if user.Status != models.UserStatusActive {
		return nil, errors.New("account is not active")
	}

	return toAuthUser(user), nil
}

func toAuthUser(user *models.User) *models.AuthUser {
	return &models.AuthUser{
		ID:       user.ID.Hex(),
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}
}
