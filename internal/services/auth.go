package services

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"devfolio-backend-go/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Identity is the caller as reported by the identity provider.
type Identity struct {
	ExternalID string `json:"externalId"`
	Email      string `json:"email"`
	Name       string `json:"name"`
}

// IdentityProvider resolves the session attached to a request. It returns
// nil, nil when the request carries no session at all.
type IdentityProvider interface {
	ResolveCaller(r *http.Request) (*Identity, error)
}

// AdminDirectory decides whether a resolved identity may use the admin surface.
type AdminDirectory interface {
	IsAdmin(ctx context.Context, identity Identity) (bool, error)
}

type AdminLookup interface {
	FindByExternalID(ctx context.Context, externalID string) (*models.AdminIdentity, error)
}

// StoreDirectory treats every identity with an admins row as an administrator.
type StoreDirectory struct {
	Admins AdminLookup
}

func (d StoreDirectory) IsAdmin(ctx context.Context, identity Identity) (bool, error) {
	admin, err := d.Admins.FindByExternalID(ctx, identity.ExternalID)
	if err != nil {
		return false, err
	}
	return admin != nil && admin.Role == models.RoleAdmin, nil
}

type Gate struct {
	Provider  IdentityProvider
	Directory AdminDirectory
}

// RequireAdminIdentity fails with an authentication error when there is no
// session and with an authorization error when the session is not an admin.
func (g Gate) RequireAdminIdentity(r *http.Request) (*Identity, error) {
	identity, err := g.Provider.ResolveCaller(r)
	if err != nil || identity == nil {
		return nil, ErrUnauthenticated("Authentication required")
	}
	ok, err := g.Directory.IsAdmin(r.Context(), *identity)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden("Admin access required")
	}
	return identity, nil
}

const SessionCookie = "__session"

type TokenService struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

func (t TokenService) HashPassword(raw string) (string, error) {
	return hashArgon2id(raw)
}

func (t TokenService) VerifyPassword(raw, hashed string) bool {
	if strings.HasPrefix(hashed, "$argon2") {
		return verifyArgon2id(raw, hashed)
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(raw)) == nil
}

func (t TokenService) CreateSessionToken(identity Identity) (string, int64, error) {
	now := time.Now().UTC()
	exp := now.Add(t.TTL)
	claims := jwt.MapClaims{
		"iss":   t.Issuer,
		"sub":   identity.ExternalID,
		"typ":   "session",
		"email": identity.Email,
		"name":  identity.Name,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.Secret)
	return signed, exp.Unix(), err
}

func (t TokenService) ParseToken(tokenStr string) (*jwt.Token, jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.Secret, nil
	}, jwt.WithIssuer(t.Issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return token, claims, err
}

// IdentityFromToken validates a raw session token.
func (t TokenService) IdentityFromToken(raw string) (*Identity, error) {
	token, claims, err := t.ParseToken(raw)
	if err != nil || !token.Valid || claims["typ"] != "session" {
		return nil, ErrUnauthenticated("Session is invalid or expired")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrUnauthenticated("Session is invalid or expired")
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	return &Identity{ExternalID: sub, Email: email, Name: name}, nil
}

// ResolveCaller reads the session from the Authorization header or the session cookie.
func (t TokenService) ResolveCaller(r *http.Request) (*Identity, error) {
	raw := ""
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		raw = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	} else if cookie, err := r.Cookie(SessionCookie); err == nil {
		raw = cookie.Value
	}
	if raw == "" {
		return nil, nil
	}
	return t.IdentityFromToken(raw)
}

// VerifyWebhook checks an HMAC-SHA256 signature given as hex, optionally prefixed with "sha256=".
func VerifyWebhook(secret, body []byte, signature string) bool {
	if len(secret) == 0 {
		return false
	}
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	expected, err := hex.DecodeString(signature)
	if err != nil || len(expected) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}

// SignWebhook returns the signature header value for body.
func SignWebhook(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

type argon2Params struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLength  int
	keyLength   int
}

func hashArgon2id(raw string) (string, error) {
	params := argon2Params{
		memory:      65536,
		iterations:  3,
		parallelism: 1,
		saltLength:  16,
		keyLength:   32,
	}
	salt := make([]byte, params.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(raw), salt, params.iterations, params.memory, params.parallelism, uint32(params.keyLength))
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Key := base64.RawStdEncoding.EncodeToString(key)
	return "$argon2id$v=19$m=" + strconv.FormatUint(uint64(params.memory), 10) +
		",t=" + strconv.FormatUint(uint64(params.iterations), 10) +
		",p=" + strconv.FormatUint(uint64(params.parallelism), 10) +
		"$" + b64Salt + "$" + b64Key, nil
}

func verifyArgon2id(raw, encoded string) bool {
	params, salt, hash, err := decodeArgon2id(encoded)
	if err != nil {
		return false
	}
	key := argon2.IDKey([]byte(raw), salt, params.iterations, params.memory, params.parallelism, uint32(params.keyLength))
	return subtleCompare(hash, key)
}

func decodeArgon2id(encoded string) (argon2Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return argon2Params{}, nil, nil, errors.New("invalid hash format")
	}
	var params argon2Params
	if !strings.HasPrefix(parts[1], "argon2") {
		return argon2Params{}, nil, nil, errors.New("invalid hash type")
	}
	paramValues := strings.Split(parts[3], ",")
	for _, kv := range paramValues {
		pair := strings.SplitN(kv, "=", 2)
		if len(pair) != 2 {
			continue
		}
		switch pair[0] {
		case "m":
			value, _ := strconv.ParseUint(pair[1], 10, 32)
			params.memory = uint32(value)
		case "t":
			value, _ := strconv.ParseUint(pair[1], 10, 32)
			params.iterations = uint32(value)
		case "p":
			value, _ := strconv.ParseUint(pair[1], 10, 8)
			params.parallelism = uint8(value)
		}
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return argon2Params{}, nil, nil, err
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return argon2Params{}, nil, nil, err
	}
	params.saltLength = len(salt)
	params.keyLength = len(hash)
	return params, salt, hash, nil
}

func subtleCompare(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}
