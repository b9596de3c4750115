package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/techcollege/referral-service/internal/domain"
	"github.com/techcollege/referral-service/internal/repository"
	apperrors "github.com/techcollege/referral-service/pkg/util/errorutil"
)

const (
	principalKey = "auth_principal"
	// StaffIDKey holds the caller id in fiber locals for request logging.
	StaffIDKey = "staff_id"
	// QueryTokenParam carries the token for clients that cannot set headers.
	QueryTokenParam = "access_token"
)

// AuthMiddleware validates bearer tokens and loads the calling staff member.
type AuthMiddleware struct {
	tokens     *TokenManager
	staff      repository.StaffRepository
	allowQuery bool
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, staff repository.StaffRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, staff: staff}
}

// WithQueryToken returns a copy that also accepts ?access_token=. Used by
// the event stream, since EventSource cannot send headers.
func (m *AuthMiddleware) WithQueryToken() *AuthMiddleware {
	cp := *m
	cp.allowQuery = true
	return &cp
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw, err := m.extractToken(c)
	if err != nil {
		return err
	}

	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	staff, err := m.staff.GetByID(c.UserContext(), claims.StaffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("staff not found")
		}
		return apperrors.NewPersistenceError(err)
	}

	c.Locals(principalKey, staff)
	c.Locals(StaffIDKey, staff.ID)
	return c.Next()
}

func (m *AuthMiddleware) extractToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		if m.allowQuery {
			if token := strings.TrimSpace(c.Query(QueryTokenParam)); token != "" {
				return token, nil
			}
		}
		return "", apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// StaffFromContext retrieves the authenticated staff member.
func StaffFromContext(c *fiber.Ctx) (*domain.Staff, bool) {
	staff, ok := c.Locals(principalKey).(*domain.Staff)
	return staff, ok && staff != nil
}
