package helpers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/golang-jwt/jwt/v5"
)

const (
	AvatarFolder    = "avatars"
	EventsFolder    = "events"
	PortfolioFolder = "portfolios"
)

type CustomClaims struct {
	Role        string `json:"role"`
	Email       string `json:"email"`
	UserID      string `json:"userId,omitempty"`
	AppMetadata struct {
		Provider  string   `json:"provider"`
		Providers []string `json:"providers"`
		Roles     []string `json:"roles,omitempty"`
	} `json:"app_metadata"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// SubjectID returns the user id carried by the token. Supabase puts it in sub,
// self-issued tokens in userId.
func (c *CustomClaims) SubjectID() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.UserID
}

// TokenValidator verifies access tokens. With a shared secret it accepts
// HS256 tokens only; otherwise it checks signatures against the Supabase
// JWKS, fetched once and refreshed in the background.
type TokenValidator struct {
	secret  []byte
	jwksURL string

	mu   sync.Mutex
	jwks *keyfunc.JWKS
}

func NewTokenValidator(secret, supabaseURL string) *TokenValidator {
	tv := &TokenValidator{secret: []byte(secret)}
	if supabaseURL != "" {
		tv.jwksURL = fmt.Sprintf("%s/auth/v1/.well-known/jwks.json", strings.TrimRight(supabaseURL, "/"))
	}
	return tv
}

func (tv *TokenValidator) Validate(tokenStr string) (*CustomClaims, error) {
	if tokenStr == "" {
		return nil, errors.New("token is empty")
	}

	var keyFunc jwt.Keyfunc
	var opts []jwt.ParserOption
	if len(tv.secret) > 0 {
		keyFunc = func(*jwt.Token) (interface{}, error) { return tv.secret, nil }
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	} else {
		jwks, err := tv.keySet()
		if err != nil {
			return nil, err
		}
		keyFunc = jwks.Keyfunc
	}

	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, keyFunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %v", err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	if claims.SubjectID() == "" {
		return nil, errors.New("token carries no user id")
	}
	return claims, nil
}

func (tv *TokenValidator) keySet() (*keyfunc.JWKS, error) {
	tv.mu.Lock()
	defer tv.mu.Unlock()
	if tv.jwks != nil {
		return tv.jwks, nil
	}
	if tv.jwksURL == "" {
		return nil, errors.New("neither JWT_SECRET nor SUPABASE_URL is set")
	}

	jwks, err := keyfunc.Get(tv.jwksURL, keyfunc.Options{
		RefreshInterval:   time.Hour,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %v", err)
	}
	tv.jwks = jwks
	return jwks, nil
}

// Close stops the background JWKS refresh.
func (tv *TokenValidator) Close() {
	tv.mu.Lock()
	defer tv.mu.Unlock()
	if tv.jwks != nil {
		tv.jwks.EndBackground()
		tv.jwks = nil
	}
}

var (
	hasLower   = regexp.MustCompile(`[a-z]`)
	hasUpper   = regexp.MustCompile(`[A-Z]`)
	hasNumber  = regexp.MustCompile(`\d`)
	hasSpecial = regexp.MustCompile(`[@$!%*?&]`)
)

func IsPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	return hasLower.MatchString(password) &&
		hasUpper.MatchString(password) &&
		hasNumber.MatchString(password) &&
		hasSpecial.MatchString(password)
}

func UploadImages(ctx context.Context, cld *cloudinary.Cloudinary, sources []string, folder string) ([]string, error) {
	if cld == nil {
		return nil, errors.New("cloudinary is not configured")
	}
	var urls []string
	for _, src := range sources {
		if strings.TrimSpace(src) == "" {
			continue
		}
		res, err := cld.Upload.Upload(ctx, src, uploader.UploadParams{
			Folder: folder,
			Tags:   []string{"eventhub"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to upload image %s: %v", src, err)
		}
		urls = append(urls, res.SecureURL)
	}
	return urls, nil
}
