package services

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"shoptill/internal/domain"
	"shoptill/internal/repos"
)

var (
	ErrBadCreds   = errors.New("invalid email or password")
	ErrBadRole    = errors.New("unknown staff role")
	ErrEmailTaken = errors.New("email already registered")
)

// Staff hashes share one cost with the seeded accounts.
const bcryptCost = 12

// AuthService authenticates staff against bcrypt hashes and binds them to
// till sessions. SALES operates the till; ADMIN additionally manages stock,
// staff and reports.
type AuthService struct {
	Users *repos.UserRepo
}

func NewAuthService(users *repos.UserRepo) *AuthService {
	return &AuthService{Users: users}
}

func (s *AuthService) Login(sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(sid string) error {
	return s.Users.UnbindSession(sid)
}

func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	return s.Users.SessionUser(sid)
}

// CreateStaff registers a till account. The password arrives already checked
// against the policy at the HTTP edge; role and email uniqueness are
// enforced here.
func (s *AuthService) CreateStaff(email, name, password, role string) (*domain.User, error) {
	if role != domain.RoleSales && role != domain.RoleAdmin {
		return nil, ErrBadRole
	}
	if _, err := s.Users.ByEmail(email); err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		ID:    uuid.NewString(),
		Email: email,
		Name:  name,
		Hash:  string(hash),
		Role:  role,
	}
	if err := s.Users.Create(u); err != nil {
		return nil, err
	}
	return u, nil
}
