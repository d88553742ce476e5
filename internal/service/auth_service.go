package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/career-compass/internal/logger"
	"github.com/ignatzorin/career-compass/internal/models"
	"github.com/ignatzorin/career-compass/internal/pkg/apperror"
	"github.com/ignatzorin/career-compass/internal/repository/common"
	"github.com/ignatzorin/career-compass/internal/validation"
)

// AuthService инкапсулирует бизнес-логику регистрации и аутентификации.
type AuthService struct {
	repo         AuthRepository
	tokenManager *TokenManager
	gw           gateway
	hashCost     int
}

// RegisterInput содержит данные пользователя при регистрации.
type RegisterInput struct {
	Email       string
	Password    string
	Role        string
	DisplayName string
}

// LoginInput содержит данные для входа.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult возвращает итог регистрации или авторизации.
type AuthResult struct {
	User    *models.User    `json:"user"`
	Profile *models.Profile `json:"profile,omitempty"`
	Token   *AccessToken    `json:"token"`
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(repo AuthRepository, tokenManager *TokenManager, timeout time.Duration) *AuthService {
	return &AuthService{
		repo:         repo,
		tokenManager: tokenManager,
		gw:           newGateway(timeout),
		hashCost:     bcrypt.DefaultCost,
	}
}

// fallbackDisplayName используется, когда локальная часть email не годится в имя.
const fallbackDisplayName = "Пользователь"

// defaultDisplayName выводит имя из локальной части email. Результат всегда валиден.
func defaultDisplayName(email string) string {
	local := strings.SplitN(email, "@", 2)[0]
	if validation.ValidateDisplayName(local) != nil {
		return fallbackDisplayName
	}
	return local
}

// Register создаёт нового пользователя и профиль. Роль задаётся один раз при регистрации.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	role := in.Role
	if role == "" {
		role = models.RoleSeeker
	}
	if err := validation.ValidateRole(role); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = defaultDisplayName(email)
	} else if err := validation.ValidateDisplayName(displayName); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось захешировать пароль")
	}

	user := &models.User{Email: email, PasswordHash: string(passHash), Role: role}
	profile := &models.Profile{DisplayName: displayName, Role: role, Skills: []string{}}

	err = s.gw.write(ctx, "регистрация", func(ctx context.Context) error {
		return s.repo.Create(ctx, user, profile)
	})
	if errors.Is(err, common.ErrAlreadyExists) {
		return nil, apperror.New(apperror.ErrCodeAlreadyExists, "email уже зарегистрирован")
	}
	if err != nil {
		return nil, err
	}

	token, err := s.tokenManager.Generate(user.ID, user.Role)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выпустить токен")
	}

	logger.Log.WithFields(logrus.Fields{"user_id": user.ID, "role": role}).Info("auth: пользователь зарегистрирован")
	return &AuthResult{User: user, Profile: profile, Token: token}, nil
}

// Login проверяет учётные данные и возвращает токен.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	var user *models.User
	err := s.gw.read(ctx, "вход", func(ctx context.Context) error {
		var err error
		user, err = s.repo.GetByEmail(ctx, email)
		return err
	})
	if errors.Is(err, common.ErrNotFound) {
		return nil, apperror.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	profile, err := s.Profile(ctx, user.ID)
	if err != nil {
		// профиль не обязателен для входа
		logger.Log.WithField("user_id", user.ID).WithError(err).Warn("auth: не удалось загрузить профиль")
		profile = nil
	}

	token, err := s.tokenManager.Generate(user.ID, user.Role)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выпустить токен")
	}
	return &AuthResult{User: user, Profile: profile, Token: token}, nil
}

// Profile возвращает профиль пользователя.
func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile *models.Profile
	err := s.gw.read(ctx, "чтение профиля", func(ctx context.Context) error {
		var err error
		profile, err = s.repo.GetProfile(ctx, userID)
		return err
	})
	if errors.Is(err, common.ErrNotFound) {
		return nil, apperror.ErrUserNotFound
	}
	return profile, err
}

// IssueToken выпускает токен для существующего пользователя. Используется CLI.
func (s *AuthService) IssueToken(ctx context.Context, userID uuid.UUID) (*AccessToken, error) {
	var user *models.User
	err := s.gw.read(ctx, "чтение пользователя", func(ctx context.Context) error {
		var err error
		user, err = s.repo.GetByID(ctx, userID)
		return err
	})
	if errors.Is(err, common.ErrNotFound) {
		return nil, apperror.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.tokenManager.Generate(user.ID, user.Role)
}
