// Package meeting builds the hosted video-meeting widget configuration and
// signs the meeting JWT it needs.
package meeting

import (
	"crypto/rsa"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config describes the hosted meeting tenant.
type Config struct {
	Domain     string
	AppID      string
	KeyID      string
	Room       string
	PrivateKey string // PEM-encoded RSA private key
	TokenTTL   time.Duration
}

// Participant is the user the token is issued for.
type Participant struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar,omitempty"`
	Moderator bool   `json:"-"`
}

// Features toggles tenant features in the token.
type Features struct {
	Livestreaming bool
	Recording     bool
	Transcription bool
	OutboundCall  bool
}

// Claims is the meeting JWT payload.
type Claims struct {
	Room    string        `json:"room"`
	Context *TokenContext `json:"context"`
	jwt.RegisteredClaims
}

// TokenContext carries the user and feature blocks. The service expects
// "true"/"false" strings rather than booleans.
type TokenContext struct {
	User     map[string]string `json:"user"`
	Features map[string]string `json:"features"`
}

// WidgetConfig is what the UI hands to the embedded meeting widget.
type WidgetConfig struct {
	Domain                   string         `json:"domain"`
	RoomName                 string         `json:"roomName"`
	JWT                      string         `json:"jwt"`
	ConfigOverwrite          map[string]any `json:"configOverwrite"`
	InterfaceConfigOverwrite map[string]any `json:"interfaceConfigOverwrite"`
}

// Signer issues RS256 meeting tokens.
type Signer struct {
	cfg Config
	key *rsa.PrivateKey
	now func() time.Time
}

// NewSigner parses the configured private key.
func NewSigner(cfg Config) (*Signer, error) {
	if cfg.AppID == "" {
		return nil, fmt.Errorf("meeting app id is required")
	}
	if strings.TrimSpace(cfg.PrivateKey) == "" {
		return nil, fmt.Errorf("meeting private key is required")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("failed to parse meeting private key: %w", err)
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 2 * time.Hour
	}
	if cfg.Domain == "" {
		cfg.Domain = "8x8.vc"
	}
	if cfg.Room == "" {
		cfg.Room = "InterVueX"
	}
	return &Signer{cfg: cfg, key: key, now: time.Now}, nil
}

// Token signs a meeting token for p.
func (s *Signer) Token(p Participant, f Features) (string, error) {
	now := s.now()
	claims := Claims{
		Room: "*",
		Context: &TokenContext{
			User: map[string]string{
				"id":        p.ID,
				"name":      p.Name,
				"email":     p.Email,
				"avatar":    p.Avatar,
				"moderator": strconv.FormatBool(p.Moderator),
			},
			Features: map[string]string{
				"livestreaming": strconv.FormatBool(f.Livestreaming),
				"recording":     strconv.FormatBool(f.Recording),
				"transcription": strconv.FormatBool(f.Transcription),
				"outbound-call": strconv.FormatBool(f.OutboundCall),
			},
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{"jitsi"},
			Issuer:    "chat",
			Subject:   s.cfg.AppID,
			NotBefore: jwt.NewNumericDate(now.Add(-10 * time.Second)),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if s.cfg.KeyID != "" {
		token.Header["kid"] = s.cfg.KeyID
	}
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign meeting token: %w", err)
	}
	return signed, nil
}

// Widget returns the widget configuration for p with a freshly signed token.
// Interviewers join as moderators.
func (s *Signer) Widget(p Participant) (*WidgetConfig, error) {
	token, err := s.Token(p, Features{})
	if err != nil {
		return nil, err
	}
	return &WidgetConfig{
		Domain:   s.cfg.Domain,
		RoomName: s.cfg.AppID + "/" + s.cfg.Room,
		JWT:      token,
		ConfigOverwrite: map[string]any{
			"startWithAudioMuted": false,
			"startWithVideoMuted": false,
			"prejoinPageEnabled":  false,
			"disableDeepLinking":  true,
		},
		InterfaceConfigOverwrite: map[string]any{
			"SHOW_JITSI_WATERMARK":      false,
			"SHOW_WATERMARK_FOR_GUESTS": false,
			"TOOLBAR_BUTTONS":           []string{"microphone", "camera", "desktop", "fullscreen", "hangup", "chat", "tileview"},
		},
	}, nil
}
