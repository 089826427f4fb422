package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"bookstore/internal/config"
	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// accesstokenの有効期限
const accessTokenTTL = 24 * time.Hour

// パスワードリセットトークンの有効期限
const resetTokenTTL = 30 * time.Minute

type AuthUsecase struct {
	cfg    config.Config
	users  repo.UserRepository
	resets repo.PasswordResetTokenRepository
}

func NewAuthUsecase(cfg config.Config, users repo.UserRepository, resets repo.PasswordResetTokenRepository) *AuthUsecase {
	return &AuthUsecase{cfg: cfg, users: users, resets: resets}
}

type UserDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type AuthRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthLoginResponse struct {
	User        UserDTO `json:"user"`
	AccessToken string  `json:"access_token"`
	ExpiresIn   int     `json:"expires_in"`
}

func (u *AuthUsecase) Register(ctx context.Context, req AuthRegisterRequest) (UserDTO, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if len(req.Password) < 8 {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
	}

	if _, err := u.users.FindByEmail(ctx, req.Email); err == nil {
		return UserDTO{}, NewHTTPError(http.StatusConflict, "email already registered")
	} else if !errors.Is(err, repo.ErrNotFound) {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: string(pwHash),
		Role:         model.RoleCustomer,
	}

	if err := u.users.Create(ctx, user); err != nil {
		// unique制約に先を越された場合
		return UserDTO{}, NewHTTPError(http.StatusConflict, "email already registered")
	}

	return toUserDTO(*user), nil
}

func (u *AuthUsecase) Login(ctx context.Context, req AuthLoginRequest) (AuthLoginResponse, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		return AuthLoginResponse{}, NewHTTPError(http.StatusBadRequest, "email and password required")
	}

	user, err := u.users.FindByEmail(ctx, req.Email)
	if err != nil {
		// 存在の有無は外に漏らさない
		return AuthLoginResponse{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return AuthLoginResponse{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	token, expiresIn, err := u.issueAccessToken(user)
	if err != nil {
		return AuthLoginResponse{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return AuthLoginResponse{
		User:        toUserDTO(user),
		AccessToken: token,
		ExpiresIn:   expiresIn,
	}, nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (UserDTO, error) {
	if userID <= 0 {
		return UserDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	return toUserDTO(user), nil
}

type ForgotPasswordResponse struct {
	// 本来はメールで送る。APIからは返すのは開発用。
	Token string `json:"token"`
}

// ForgotPassword はリセットトークンを発行する。
// メールアドレスが未登録でも404にはしない（存在を漏らさない）。
func (u *AuthUsecase) ForgotPassword(ctx context.Context, email string) (ForgotPasswordResponse, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return ForgotPasswordResponse{}, NewHTTPError(http.StatusBadRequest, "email required")
	}

	user, err := u.users.FindByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return ForgotPasswordResponse{}, nil
	}
	if err != nil {
		return ForgotPasswordResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	token, err := newRandomToken()
	if err != nil {
		return ForgotPasswordResponse{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if err := u.resets.Create(ctx, model.PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}); err != nil {
		return ForgotPasswordResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ForgotPasswordResponse{Token: token}, nil
}

// ResetPassword はトークンを消費して新パスワードを保存する。
// トークンは一度きり。
func (u *AuthUsecase) ResetPassword(ctx context.Context, token string, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return NewHTTPError(http.StatusBadRequest, "token required")
	}
	if len(newPassword) < 8 {
		return NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
	}

	now := time.Now()
	t, err := u.resets.FindValidByToken(ctx, token, now)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	user, err := u.users.FindByID(ctx, t.UserID)
	if err != nil {
		return NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user.PasswordHash = string(pwHash)
	if err := u.users.Update(ctx, user); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.resets.MarkUsed(ctx, t.ID, now)
}

func (u *AuthUsecase) issueAccessToken(user model.User) (string, int, error) {
	now := time.Now()
	exp := now.Add(accessTokenTTL)

	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := t.SignedString([]byte(u.cfg.JWTSecret))
	if err != nil {
		return "", 0, err
	}

	return signed, int(accessTokenTTL.Seconds()), nil
}

func newRandomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func toUserDTO(u model.User) UserDTO {
	return UserDTO{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  string(u.Role),
	}
}
