package service

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"safety-tracker/internal/entities"
	apperrors "safety-tracker/pkg/errors"
)

const sessionIssuer = "safety-tracker"

// SessionClaims - содержимое токена сессии. Ровно один субъект: сотрудник или админ.
type SessionClaims struct {
	Kind         entities.PrincipalKind `json:"kind"`
	EmployeeID   uint64                 `json:"eid,omitempty"`
	EmployeeCode string                 `json:"code,omitempty"`
	Name         string                 `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type SessionService interface {
	// Issue подписывает токен для сотрудника или админа. Аноним токена не получает.
	Issue(p entities.Principal) (token string, expiresAt time.Time, err error)
	// Parse проверяет подпись и срок и восстанавливает Principal.
	Parse(token string) (entities.Principal, error)
	TTL() time.Duration
}

type jwtSessionService struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func NewSessionService(secretKey string, ttl time.Duration, logger *zap.Logger) SessionService {
	return &jwtSessionService{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *jwtSessionService) TTL() time.Duration { return s.ttl }

func (s *jwtSessionService) Issue(p entities.Principal) (string, time.Time, error) {
	claims := &SessionClaims{Kind: p.Kind()}
	switch {
	case p.IsAdmin():
	case p.IsEmployee():
		claims.EmployeeID, _ = p.EmployeeID()
		claims.EmployeeCode = p.EmployeeCode()
		claims.Name = p.Name()
	default:
		return "", time.Time{}, apperrors.ErrUnauthorized
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (s *jwtSessionService) Parse(tokenString string) (entities.Principal, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrInvalidSigningMethod
		}
		return s.secretKey, nil
	},
		jwt.WithIssuer(sessionIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return entities.AnonymousPrincipal(), apperrors.ErrTokenExpired
		}
		s.logger.Debug("Ошибка парсинга или проверки подписи токена", zap.Error(err))
		return entities.AnonymousPrincipal(), apperrors.ErrInvalidToken
	}
	if !token.Valid {
		return entities.AnonymousPrincipal(), apperrors.ErrInvalidToken
	}

	switch claims.Kind {
	case entities.PrincipalAdmin:
		return entities.AdminPrincipal(), nil
	case entities.PrincipalEmployee:
		if claims.EmployeeID == 0 {
			return entities.AnonymousPrincipal(), apperrors.ErrInvalidToken
		}
		return entities.EmployeePrincipal(claims.EmployeeID, claims.EmployeeCode, claims.Name), nil
	default:
		return entities.AnonymousPrincipal(), apperrors.ErrInvalidToken
	}
}
