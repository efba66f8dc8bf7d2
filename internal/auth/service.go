package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"backend-snapgraph/internal/apperr"
	"backend-snapgraph/internal/db"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

var (
	errInvalidCredentials = errors.New("invalid credentials")
	errSessionRejected    = errors.New("session not authorized")
)

var (
	signTokenFn    = (*Service).signToken
	hashPasswordFn = bcrypt.GenerateFromPassword
)

type Service struct {
	secret     []byte
	sessionKey []byte
	db         db.Querier
}

type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

func NewService(secret string, db db.Querier) *Service {
	return &Service{
		secret: []byte(secret),
		db:     db,
	}
}

// WithSessionKey sets the key the identity collaborator presents to Session.
// An empty key disables Session.
func (s *Service) WithSessionKey(key string) *Service {
	s.sessionKey = []byte(key)
	return s
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, TokenResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Username == "" || req.Password == "" {
		return User{}, TokenResponse{}, apperr.Validation("email, username, password required")
	}
	hash, err := hashPasswordFn([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, TokenResponse{}, err
	}

	user := User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
		Name:         req.Name,
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO users (email, username, password_hash, name)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at, updated_at
	`, user.Email, user.Username, user.PasswordHash, user.Name)
	if err := row.Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		err = db.Classify(err)
		if apperr.KindOf(err) == apperr.KindConflict {
			return User{}, TokenResponse{}, apperr.ErrConflict.WithMessage("email or username already taken")
		}
		return User{}, TokenResponse{}, err
	}

	tokens, err := s.GenerateTokens(ctx, user.ID)
	if err != nil {
		return User{}, TokenResponse{}, err
	}
	return user, tokens, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (User, TokenResponse, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, username, COALESCE(password_hash, ''), name, created_at, updated_at
		FROM users WHERE email = $1
	`, normalizeEmail(req.Email))

	var user User
	if err := row.Scan(&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.Name, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, TokenResponse{}, errInvalidCredentials
		}
		return User{}, TokenResponse{}, db.Classify(err)
	}
	// Accounts created through Session have no password.
	if user.PasswordHash == "" {
		return User{}, TokenResponse{}, errInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return User{}, TokenResponse{}, errInvalidCredentials
	}

	tokens, err := s.GenerateTokens(ctx, user.ID)
	if err != nil {
		return User{}, TokenResponse{}, err
	}
	return user, tokens, nil
}

// Session finds the user owning email or creates one whose username is the
// email's local part. A username already taken by someone else gets a short
// random suffix. Only callers holding the session key are served, and
// accounts with a password must use Login.
func (s *Service) Session(ctx context.Context, req SessionRequest) (User, TokenResponse, error) {
	if len(s.sessionKey) == 0 || subtle.ConstantTimeCompare(s.sessionKey, []byte(req.Key)) != 1 {
		return User{}, TokenResponse{}, errSessionRejected
	}
	email := normalizeEmail(req.Email)
	if !strings.Contains(email, "@") || strings.HasPrefix(email, "@") {
		return User{}, TokenResponse{}, apperr.Validation("valid email required")
	}

	username := strings.SplitN(email, "@", 2)[0]
	user, hasPassword, err := s.upsertByEmail(ctx, email, username, req.Name)
	if apperr.KindOf(err) == apperr.KindConflict {
		user, hasPassword, err = s.upsertByEmail(ctx, email, username+"_"+uuid.NewString()[:8], req.Name)
	}
	if err != nil {
		return User{}, TokenResponse{}, fmt.Errorf("session: %w", err)
	}
	if hasPassword {
		return User{}, TokenResponse{}, errSessionRejected
	}

	tokens, err := s.GenerateTokens(ctx, user.ID)
	if err != nil {
		return User{}, TokenResponse{}, err
	}
	return user, tokens, nil
}

func (s *Service) upsertByEmail(ctx context.Context, email, username, name string) (User, bool, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO users (email, username, name)
		VALUES ($1,$2,$3)
		ON CONFLICT (email) DO UPDATE SET updated_at = users.updated_at
		RETURNING id, email, username, name, created_at, updated_at, password_hash IS NOT NULL
	`, email, username, name)
	var (
		user        User
		hasPassword bool
	)
	if err := row.Scan(&user.ID, &user.Email, &user.Username, &user.Name, &user.CreatedAt, &user.UpdatedAt, &hasPassword); err != nil {
		return User{}, false, db.Classify(err)
	}
	return user, hasPassword, nil
}

func (s *Service) GenerateTokens(ctx context.Context, userID int64) (TokenResponse, error) {
	access, err := signTokenFn(s, userID, accessTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	refresh, err := signTokenFn(s, userID, refreshTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	if err := s.saveRefreshToken(ctx, refresh, userID, refreshTokenTTL); err != nil {
		return TokenResponse{}, err
	}

	return TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(accessTokenTTL.Seconds()),
	}, nil
}

func (s *Service) ValidateRefreshToken(ctx context.Context, token string) (int64, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return 0, err
	}

	userID, expiresAt, err := s.lookupRefreshToken(ctx, token)
	if err != nil || userID != claims.UserID || time.Now().After(expiresAt) {
		return 0, errors.New("refresh token invalid")
	}
	return claims.UserID, nil
}

func (s *Service) ValidateAccessToken(token string) (int64, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

func (s *Service) signToken(userID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parseToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}

func (s *Service) saveRefreshToken(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at)
		VALUES ($1,$2,$3,$4)
	`, uuid.NewString(), userID, token, time.Now().Add(ttl))
	return err
}

func (s *Service) lookupRefreshToken(ctx context.Context, token string) (int64, time.Time, error) {
	row := s.db.QueryRow(ctx, `
		SELECT user_id, expires_at
		FROM refresh_tokens
		WHERE token = $1 AND revoked_at IS NULL
	`, token)
	var userID int64
	var expiresAt time.Time
	if err := row.Scan(&userID, &expiresAt); err != nil {
		return 0, time.Time{}, err
	}
	return userID, expiresAt, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
