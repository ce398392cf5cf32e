package token

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	customErrors "github.com/learnora/learnora-server/internal/domain/auth/errors"
	"github.com/learnora/learnora-server/internal/domain/auth/model"
	domaintoken "github.com/learnora/learnora-server/internal/domain/auth/token"
	"github.com/learnora/learnora-server/internal/infra/config"
)

// Issuer signs the three token classes with distinct HMAC secrets so
// compromise of one class does not compromise the others.
type Issuer struct {
	accessSecret     []byte
	refreshSecret    []byte
	activationSecret []byte
	accessTTL        time.Duration
	refreshTTL       time.Duration
	activationTTL    time.Duration
	issuer           string
}

func NewIssuer(cfg *config.Config) (*Issuer, error) {
	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" || cfg.ActivationTokenSecret == "" {
		return nil, customErrors.WrapInternal(errors.New("missing signing secret"), "NewIssuer")
	}
	return &Issuer{
		accessSecret:     []byte(cfg.AccessTokenSecret),
		refreshSecret:    []byte(cfg.RefreshTokenSecret),
		activationSecret: []byte(cfg.ActivationTokenSecret),
		accessTTL:        cfg.AccessTokenTTL,
		refreshTTL:       cfg.RefreshTokenTTL,
		activationTTL:    cfg.ActivationTokenTTL,
		issuer:           cfg.JWTIssuer,
	}, nil
}

func (i *Issuer) IssueActivationToken(pending model.PendingUser) (string, string, error) {
	code, err := activationCode()
	if err != nil {
		return "", "", customErrors.WrapInternal(err, "activation code")
	}

	now := time.Now()
	claims := domaintoken.ActivationClaims{
		User:           pending,
		ActivationCode: code,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.activationTTL)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.activationSecret)
	if err != nil {
		return "", "", customErrors.WrapInternal(err, "sign activation token")
	}
	return signed, code, nil
}

func (i *Issuer) ParseActivationToken(raw string) (domaintoken.ActivationClaims, error) {
	claims := &domaintoken.ActivationClaims{}
	if err := i.parse(raw, claims, i.activationSecret); err != nil {
		return domaintoken.ActivationClaims{}, err
	}
	return *claims, nil
}

func (i *Issuer) IssueAccessToken(userID uuid.UUID) (string, time.Time, error) {
	return i.sign(userID, i.accessSecret, i.accessTTL)
}

func (i *Issuer) IssueRefreshToken(userID uuid.UUID) (string, time.Time, error) {
	return i.sign(userID, i.refreshSecret, i.refreshTTL)
}

func (i *Issuer) ParseAccessToken(raw string) (domaintoken.AccessClaims, error) {
	claims := &domaintoken.AccessClaims{}
	if err := i.parse(raw, claims, i.accessSecret); err != nil {
		return domaintoken.AccessClaims{}, err
	}
	return *claims, nil
}

func (i *Issuer) ParseRefreshToken(raw string) (domaintoken.RefreshClaims, error) {
	claims := &domaintoken.RefreshClaims{}
	if err := i.parse(raw, claims, i.refreshSecret); err != nil {
		return domaintoken.RefreshClaims{}, err
	}
	return *claims, nil
}

func (i *Issuer) sign(userID uuid.UUID, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    i.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "sign token")
	}
	return signed, claims.ExpiresAt.Time, nil
}

func (i *Issuer) parse(raw string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, customErrors.ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithIssuedAt())

	if err != nil || !token.Valid {
		return customErrors.ErrInvalidToken
	}

	if i.issuer != "" {
		iss, err := token.Claims.GetIssuer()
		if err != nil || iss != i.issuer {
			return customErrors.ErrInvalidToken
		}
	}
	return nil
}

// activationCode draws 4 random digits, 1000–9999.
func activationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+1000, 10), nil
}
