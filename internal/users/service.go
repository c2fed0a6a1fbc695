// Package users handles registration and login. Signing up with a
// referral code pays the referrer loyalty points and hands the new user
// a one-time discount; three failed logins in a row suspend the account.
package users

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ms-eventpay/internal/apperr"
	"ms-eventpay/internal/auth"
	"ms-eventpay/internal/config"
	"ms-eventpay/internal/logger"
	"ms-eventpay/internal/loyalty"
	"ms-eventpay/internal/models"
)

const maxLoginAttempts = 3

type DBLayer interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByReferralCode(ctx context.Context, code string) (*models.User, error)
	CreateUserWithGrants(ctx context.Context, user models.User, grant *models.UserPoint, welcome *models.UserDiscount) error
	UpdateLoginState(ctx context.Context, id string, attempts int, suspended bool) error
}

type Service struct {
	db      DBLayer
	loyalty *loyalty.Service
	auth    config.AuthConfig
	logger  *logger.Logger
}

func NewService(db DBLayer, loyaltySvc *loyalty.Service, authCfg config.AuthConfig, log *logger.Logger) *Service {
	return &Service{db: db, loyalty: loyaltySvc, auth: authCfg, logger: log}
}

// Register creates an account. A referral code that does not resolve
// fails the whole registration; no user row is written.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if len(req.Username) < 3 {
		return nil, apperr.Validation("username must be at least 3 characters")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, apperr.Validation("invalid email address")
	}
	if len(req.Password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}
	if req.Role != models.RoleCustomer && req.Role != models.RoleOrganizer {
		return nil, apperr.Validation("role must be %s or %s", models.RoleCustomer, models.RoleOrganizer)
	}

	if existing, err := s.db.GetByUsername(ctx, req.Username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperr.Conflict("username %s is taken", req.Username)
	}
	if existing, err := s.db.GetByEmail(ctx, req.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperr.Conflict("email %s is already registered", req.Email)
	}

	var referrer *models.User
	if req.ReferralCode != "" {
		var err error
		referrer, err = s.db.GetByReferralCode(ctx, req.ReferralCode)
		if err != nil {
			return nil, err
		}
		if referrer == nil {
			return nil, apperr.Validation("referral code %s does not exist", req.ReferralCode)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	referralCode, err := generateReferralCode(req.Username)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := models.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		ReferralCode: referralCode,
		CreatedAt:    now,
	}

	var grant *models.UserPoint
	var welcome *models.UserDiscount
	if referrer != nil {
		g := s.loyalty.ReferralGrant(referrer.ID, now)
		grant = &g
		w := s.loyalty.ReferralDiscount(user.ID, now)
		welcome = &w
	}

	if err := s.db.CreateUserWithGrants(ctx, user, grant, welcome); err != nil {
		return nil, err
	}

	s.logger.Info("USERS", "registered "+user.Username)
	return &user, nil
}

// Login checks credentials and returns a signed token. Each failure
// counts against the account; the third in a row suspends it until an
// operator intervenes.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.db.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if user.Suspended {
		return nil, apperr.Forbidden("account suspended after repeated failed logins")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		attempts := user.Attempts + 1
		suspended := attempts >= maxLoginAttempts
		if err := s.db.UpdateLoginState(ctx, user.ID, attempts, suspended); err != nil {
			s.logger.Error("USERS", "failed to record login attempt: "+err.Error())
		}
		if suspended {
			return nil, apperr.Forbidden("account suspended after repeated failed logins")
		}
		return nil, apperr.Unauthorized("invalid email or password")
	}

	if user.Attempts > 0 {
		if err := s.db.UpdateLoginState(ctx, user.ID, 0, false); err != nil {
			s.logger.Error("USERS", "failed to reset login attempts: "+err.Error())
		}
	}

	token, err := auth.IssueToken(*user, s.auth.JWTSecret, s.auth.TokenTTL)
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{
		Message: "login successful",
		Token:   token,
		UserID:  user.ID,
		Role:    user.Role,
	}, nil
}

// generateReferralCode builds a shareable code from the username plus
// five random digits.
func generateReferralCode(username string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", username, n.Int64()), nil
}
