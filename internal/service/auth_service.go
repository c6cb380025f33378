package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"prizetalk/internal/model"
	"prizetalk/internal/pkg"
	"prizetalk/internal/pkg/apperr"
	"prizetalk/internal/policy"
	"prizetalk/internal/repository/rdb"
	"prizetalk/internal/repository/redis"
)

type AuthService struct {
	users    *rdb.UserRepository
	roles    *RoleService
	tokens   *pkg.TokenIssuer
	sessions *redis.SessionRepository // nil in stateless mode
	log      *zap.Logger

	allowSelfAssignedRoles bool
}

type AuthOptions struct {
	Tokens                 *pkg.TokenIssuer
	Sessions               *redis.SessionRepository
	AllowSelfAssignedRoles bool
}

func NewAuthService(db *gorm.DB, opts AuthOptions, log *zap.Logger) *AuthService {
	return &AuthService{
		users:                  &rdb.UserRepository{DB: db},
		roles:                  NewRoleService(db, log),
		tokens:                 opts.Tokens,
		sessions:               opts.Sessions,
		allowSelfAssignedRoles: opts.AllowSelfAssignedRoles,
		log:                    log.Named("auth"),
	}
}

type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      string
}

// Account is the public view of a user. First and last name are derived from
// the username, which signup stores as "first last".
type Account struct {
	ID        uint64 `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

type LoginResult struct {
	Token     string  `json:"token"`
	ExpiresIn int64   `json:"expires_in"`
	Account   Account `json:"account"`
}

func newAccount(u *model.User, role string) Account {
	first, last, _ := strings.Cut(u.Username, " ")
	return Account{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: first,
		LastName:  last,
		Role:      role,
	}
}

// Signup creates the user, its first role row and its profile together.
// It returns the account and the confirmation message.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*Account, string, error) {
	first := pkg.SanitizeText(in.FirstName)
	last := pkg.SanitizeText(in.LastName)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if first == "" || last == "" || email == "" || in.Password == "" {
		return nil, "", apperr.Invalid("All fields required")
	}
	if !strings.Contains(email, "@") {
		return nil, "", apperr.Invalid("invalid email")
	}
	if len(in.Password) < 6 {
		return nil, "", apperr.Invalid("password must be at least 6 characters")
	}

	role := policy.RoleUser
	if s.allowSelfAssignedRoles && policy.ValidRole(in.Role) {
		role = in.Role
	}

	taken, err := s.users.EmailTaken(ctx, email)
	if err != nil {
		return nil, "", storeErr(s.log, "signup", err, "")
	}
	if taken {
		return nil, "", apperr.Duplicate("Email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error("hash password failed", zap.Error(err))
		return nil, "", apperr.Wrap(apperr.Internal, "internal server error", err)
	}
	user := &model.User{
		Username:     first + " " + last,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user, role); err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, "", apperr.Wrap(apperr.Conflict, "Email or username already exists", err)
		}
		return nil, "", storeErr(s.log, "signup", err, "")
	}

	s.log.Info("user signed up", zap.Uint64("user_id", user.ID), zap.String("role", role))
	acct := newAccount(user, role)
	return &acct, roleTitle(role) + " account created successfully.", nil
}

// Login checks the credential and issues an access token. With a session
// store configured the token becomes the user's only live session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.Invalid("Email and password required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, storeErr(s.log, "login", err, "")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	role, err := s.roles.EffectiveRole(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	token, tokenID, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.log.Error("issue token failed", zap.Error(err))
		return nil, apperr.Wrap(apperr.Internal, "internal server error", err)
	}
	if s.sessions != nil {
		if err := s.sessions.Save(ctx, user.ID, tokenID); err != nil {
			s.log.Error("save session failed", zap.Uint64("user_id", user.ID), zap.Error(err))
			return nil, apperr.Wrap(apperr.Internal, "internal server error", err)
		}
	}

	return &LoginResult{
		Token:     token,
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
		Account:   newAccount(user, role),
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, userID uint64) error {
	if s.sessions == nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, userID); err != nil {
		s.log.Error("delete session failed", zap.Uint64("user_id", userID), zap.Error(err))
		return apperr.Wrap(apperr.Internal, "internal server error", err)
	}
	return nil
}

// Me returns the account of the verified caller.
func (s *AuthService) Me(ctx context.Context, userID uint64) (*Account, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeErr(s.log, "load account", err, "user not found")
	}
	role, err := s.roles.EffectiveRole(ctx, userID)
	if err != nil {
		return nil, err
	}
	acct := newAccount(user, role)
	return &acct, nil
}

// roleTitle turns "staff_admin" into "Staff Admin".
func roleTitle(role string) string {
	words := strings.Split(role, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
