package service

import (
	"errors"
	"time"

	"github.com/examhall/examhall/config"
	"github.com/examhall/examhall/internal/apperror"
	"github.com/examhall/examhall/internal/dto"
	"github.com/examhall/examhall/internal/model"
	"github.com/examhall/examhall/internal/repository"
	"github.com/golang-jwt/jwt/v4"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	Signup(req dto.SignupRequest) (*dto.UserResponse, error)
	Login(req dto.LoginRequest) (*dto.TokenResponse, error)
	// Authenticate resolves a bearer token to its user, or fails with
	// PermissionDenied.
	Authenticate(tokenString string) (*model.User, error)
	ListStudents() ([]dto.UserResponse, error)
}

type authService struct {
	userRepo repository.UserRepository
	cfg      *config.Config
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) AuthService {
	return &authService{userRepo: userRepo, cfg: cfg}
}

// Signup registers a new student account. The role is always student;
// admin accounts are provisioned out of band.
func (s *authService) Signup(req dto.SignupRequest) (*dto.UserResponse, error) {
	if _, err := s.userRepo.FindByEmail(req.Email); err == nil {
		return nil, apperror.New(apperror.Validation, "email %s is already registered", req.Email)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to look up email")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to hash password")
	}

	user := model.User{
		Email:          req.Email,
		HashedPassword: string(hashed),
		Role:           model.RoleStudent,
		FullName:       req.FullName,
		Gender:         req.Gender,
		ExamCandidate:  req.ExamCandidate,
	}
	if req.DateOfBirth != nil {
		dob, parseErr := time.Parse("2006-01-02", *req.DateOfBirth)
		if parseErr != nil {
			return nil, apperror.New(apperror.Validation, "date_of_birth must be YYYY-MM-DD")
		}
		user.DateOfBirth = &dob
	}

	if err := s.userRepo.Create(&user); err != nil {
		log.Error().Err(err).Str("email", req.Email).Msg("Failed to create user")
		return nil, apperror.Wrap(apperror.Internal, err, "failed to create user")
	}

	var resp dto.UserResponse
	copier.Copy(&resp, &user)
	return &resp, nil
}

func (s *authService) Login(req dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.PermissionDenied, "incorrect email or password")
		}
		return nil, apperror.Wrap(apperror.Internal, err, "failed to look up user")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)) != nil {
		return nil, apperror.New(apperror.PermissionDenied, "incorrect email or password")
	}

	ttl := time.Duration(s.cfg.Auth.TokenTTLMinutes) * time.Minute
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Auth.JWTSecret))
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to sign token")
	}

	return &dto.TokenResponse{AccessToken: signed, TokenType: "bearer"}, nil
}

func (s *authService) Authenticate(tokenString string) (*model.User, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.Auth.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, apperror.New(apperror.PermissionDenied, "could not validate credentials")
	}

	user, err := s.userRepo.FindByID(claims.Subject)
	if err != nil {
		return nil, apperror.New(apperror.PermissionDenied, "could not validate credentials")
	}
	return user, nil
}

func (s *authService) ListStudents() ([]dto.UserResponse, error) {
	students, err := s.userRepo.FindStudents()
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to list students")
	}
	resp := make([]dto.UserResponse, 0, len(students))
	copier.Copy(&resp, &students)
	return resp, nil
}
