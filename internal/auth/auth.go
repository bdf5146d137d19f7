package auth

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(s)); r {
	case RoleUser, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Principal is the authenticated caller carried in the JWT.
type Principal struct {
	UserID string
	Email  string
	Role   Role
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

var ErrInvalidToken = errors.New("invalid token")

type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

func (i *Issuer) Issue(p Principal) (string, error) {
	claims := jwt.MapClaims{
		"user_id": p.UserID,
		"email":   p.Email,
		"role":    string(p.Role),
		"exp":     time.Now().Add(i.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

func (i *Issuer) Parse(raw string) (Principal, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !tok.Valid {
		return Principal{}, ErrInvalidToken
	}
	return principalFromToken(tok)
}

// Middleware verifies the bearer token and stores it in Locals("user").
func (i *Issuer) Middleware() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: i.secret,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		},
	})
}

// PrincipalFromCtx reads the claims jwtware left in `c.Locals("user")`.
func PrincipalFromCtx(c *fiber.Ctx) (Principal, error) {
	tok, ok := c.Locals("user").(*jwt.Token)
	if !ok || tok == nil {
		return Principal{}, fiber.ErrUnauthorized
	}
	return principalFromToken(tok)
}

// GetUserIDFromCtx is shorthand for the caller's id.
func GetUserIDFromCtx(c *fiber.Ctx) (string, error) {
	p, err := PrincipalFromCtx(c)
	if err != nil {
		return "", err
	}
	return p.UserID, nil
}

func principalFromToken(tok *jwt.Token) (Principal, error) {
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, fiber.ErrUnauthorized
	}
	var p Principal
	switch v := claims["user_id"].(type) {
	case string:
		p.UserID = v
	case float64:
		p.UserID = fmt.Sprintf("%.0f", v)
	default:
		return Principal{}, fiber.ErrUnauthorized
	}
	if p.UserID == "" {
		return Principal{}, fiber.ErrUnauthorized
	}
	p.Email, _ = claims["email"].(string)
	p.Role = RoleUser
	if raw, ok := claims["role"].(string); ok {
		if r, err := ParseRole(raw); err == nil {
			p.Role = r
		}
	}
	return p, nil
}

// RequireAdmin rejects callers without the ADMIN role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := PrincipalFromCtx(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		}
		if !p.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "admin access required"})
		}
		return c.Next()
	}
}

// AdminPageGuard protects browser routes. Non-admin visitors are redirected
// to loginPath with the requested URL in callbackUrl.
func AdminPageGuard(i *Issuer, loginPath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if strings.Contains(c.Path(), "/login") {
			return c.Next()
		}
		raw := c.Cookies("token")
		if raw == "" {
			raw = strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		}
		if raw != "" {
			if p, err := i.Parse(raw); err == nil && p.IsAdmin() {
				return c.Next()
			}
		}
		target := loginPath + "?callbackUrl=" + url.QueryEscape(c.BaseURL()+c.OriginalURL())
		return c.Redirect(target, fiber.StatusFound)
	}
}
