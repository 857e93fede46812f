package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/rekodi/core"
	"github.com/trezcool/rekodi/core/school"
)

const (
	tokenContextKey   = "authToken"
	studentContextKey = "student"
)

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    conf.SecretKey,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

// Claims represents the authorization claims transmitted via a JWT, shaped
// the way the identity provider issues them: standard claims plus email,
// role and two metadata blocks controlled by the provider and the apps.
type Claims struct {
	jwt.StandardClaims
	Email        string                 `json:"email,omitempty"`
	Role         string                 `json:"role,omitempty"`
	AppMetadata  map[string]interface{} `json:"app_metadata,omitempty"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
}

// metaString returns the named metadata entry; app metadata wins over user
// metadata since only the provider can write it.
func (c Claims) metaString(key string) string {
	if v, ok := c.AppMetadata[key].(string); ok && v != "" {
		return v
	}
	if v, ok := c.UserMetadata[key].(string); ok && v != "" {
		return v
	}
	return ""
}

// ResolvedRole defaults to the student role when the token carries none.
func (c Claims) ResolvedRole() string {
	if role := c.metaString("role"); role != "" {
		return role
	}
	if c.Role != "" && c.Role != "authenticated" {
		return c.Role
	}
	return school.RoleStudent
}

// Identity extracts the domain view of the claims for the resolver.
func (c Claims) Identity() school.Identity {
	return school.Identity{
		SubjectID: c.Subject,
		StudentID: c.metaString("student_id"),
		Username:  c.metaString("username"),
		Role:      c.ResolvedRole(),
	}
}

// GetStudentClaims mints provider-shaped claims for a known student. Used by
// tests and local development; production tokens come from the provider.
func GetStudentClaims(stu school.Student, conf *core.Config) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   stu.AuthID,
			Audience:  "authenticated",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email: stu.Email,
		Role:  "authenticated",
		UserMetadata: map[string]interface{}{
			"role":       school.RoleStudent,
			"student_id": stu.ID,
			"username":   stu.Username.String,
		},
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims, conf *core.Config) (string, error) {
	method := jwt.GetSigningMethod(middleware.AlgorithmHS256)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(conf.SecretKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextStudent(ctx echo.Context) (school.Student, error) {
	if stu, ok := ctx.Get(studentContextKey).(school.Student); ok {
		return stu, nil
	}
	return school.Student{}, errUnauthorized
}
