package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"

	"partner-office/internal/apperr"
	"partner-office/internal/auth"
	"partner-office/internal/models"
	"partner-office/internal/repository"
	"partner-office/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{2,20}$`)

// AuthService handles partner authentication and recruitment
type AuthService struct {
	partners    *repository.PartnerRepository
	adminPrefix string
}

// NewAuthService creates a new AuthService
func NewAuthService(partners *repository.PartnerRepository, adminPrefix string) *AuthService {
	return &AuthService{
		partners:    partners,
		adminPrefix: adminPrefix,
	}
}

// Login verifies a partner's code and password and returns the verified
// identity used for token issuance.
func (s *AuthService) Login(ctx context.Context, code, password string) (*models.Partner, auth.Identity, error) {
	partner, err := s.partners.GetByCode(ctx, code)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, auth.Identity{}, fmt.Errorf("%w: unknown code or password", apperr.ErrUnauthenticated)
	}
	if err != nil {
		return nil, auth.Identity{}, fmt.Errorf("failed to load partner: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(partner.PasswordHash), []byte(password)); err != nil {
		return nil, auth.Identity{}, fmt.Errorf("%w: unknown code or password", apperr.ErrUnauthenticated)
	}

	identity := auth.Identity{
		PartnerID:  partner.ID,
		UniqueCode: partner.UniqueCode,
		Role:       models.RoleForCode(partner.UniqueCode, s.adminPrefix),
	}

	log.Printf("Partner logged in: %s (ID: %d)", partner.UniqueCode, partner.ID)
	return partner, identity, nil
}

// RegisterInput is the recruitment request for a new sub-partner.
type RegisterInput struct {
	UniqueCode   string
	Password     string
	Nickname     string
	Phone        string
	WebhookURL   string
	ReferrerCode string
}

// Register creates a new partner under the recruiting referrer. The new
// partner's level is the referrer's level plus one; a missing referrer code
// creates a root partner.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.Partner, error) {
	code := models.NormalizeCode(input.UniqueCode)
	if !codePattern.MatchString(code) {
		return nil, apperr.Validationf("code must be 2-20 letters or digits")
	}
	if len(input.Password) < 8 {
		return nil, apperr.Validationf("password must be at least 8 characters")
	}

	nickname := input.Nickname
	if nickname == "" {
		generated, err := utils.GenerateNickname()
		if err != nil {
			return nil, fmt.Errorf("failed to generate nickname: %w", err)
		}
		nickname = generated
	}

	if _, err := s.partners.GetByCode(ctx, code); err == nil {
		return nil, apperr.Validationf("code %s is already taken", code)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("failed to check code: %w", err)
	}

	level := 0
	var referrerCode *string
	if input.ReferrerCode != "" {
		referrer, err := s.partners.GetByCode(ctx, input.ReferrerCode)
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Validationf("referrer code %s does not exist", input.ReferrerCode)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load referrer: %w", err)
		}
		normalized := models.NormalizeCode(referrer.UniqueCode)
		referrerCode = &normalized
		level = referrer.Level + 1
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	partner := &models.Partner{
		UniqueCode:   code,
		ReferrerCode: referrerCode,
		Nickname:     nickname,
		Level:        level,
		PasswordHash: string(hash),
		Phone:        input.Phone,
		WebhookURL:   input.WebhookURL,
	}

	if err := s.partners.Create(ctx, partner); err != nil {
		return nil, fmt.Errorf("failed to create partner: %w", err)
	}

	log.Printf("New partner created: %s (referrer: %v)", code, input.ReferrerCode)
	return partner, nil
}

// GetByID retrieves a partner by its stable id
func (s *AuthService) GetByID(ctx context.Context, id uint) (*models.Partner, error) {
	return s.partners.GetByID(ctx, id)
}

// AllPartners lists every partner account
func (s *AuthService) AllPartners(ctx context.Context) ([]models.Partner, error) {
	return s.partners.All(ctx)
}
