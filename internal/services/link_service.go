package services

import (
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/nlwealth/advisorforms/internal/models"
)

// LinkClaims is the payload of a questionnaire capability token. The token
// itself carries the (client, section) authorization claim; the server keeps
// no per-token state, so revocation is only possible by rotating the signing
// secret.
type LinkClaims struct {
	ClientID     int            `json:"cid"`
	Section      models.Section `json:"sec"`
	ClientNumber string         `json:"cnum"`
	jwt.RegisteredClaims
}

// LinkService mints and redeems signed section links. Issuing a link opens
// the section for the client immediately; redeeming one re-opens it if an
// admin closed it in the meantime. A link always grants access, never
// revokes it.
type LinkService struct {
	clients ClientSectionStore
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
	jti     func() string
}

func NewLinkService(clients ClientSectionStore, secret []byte) *LinkService {
	return &LinkService{
		clients: clients,
		secret:  secret,
		ttl:     30 * 24 * time.Hour,
		now:     func() time.Time { return time.Now().UTC() },
		jti:     func() string { return shortID(16) },
	}
}

// IssueLink signs a capability token for (clientID, section) and makes the
// section available to the client so the link works the moment it is sent.
func (s *LinkService) IssueLink(clientID int, section models.Section) (string, error) {
	if !models.ValidSection(section) {
		return "", NewInvalidError("unknown section: " + string(section))
	}
	client, err := s.clients.GetClient(clientID)
	if err != nil {
		return "", err
	}
	if client == nil {
		return "", NewNotFoundError("client not found")
	}
	if !client.HasSection(section) {
		if _, err := s.clients.UpdateClientSections(clientID, append(client.AvailableSections, section)); err != nil {
			return "", err
		}
	}
	now := s.now()
	claims := LinkClaims{
		ClientID:     clientID,
		Section:      section,
		ClientNumber: client.ClientNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.jti(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Redeem validates a capability token and returns the client and section it
// grants. The section is added back to the client's availability if absent.
// Any parse, signature, or expiry failure surfaces as one unauthorized error.
func (s *LinkService) Redeem(token string) (*models.Client, models.Section, error) {
	parsed, err := jwt.ParseWithClaims(token, &LinkClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, "", NewUnauthorizedError("invalid or expired token")
	}
	claims, ok := parsed.Claims.(*LinkClaims)
	if !ok || !parsed.Valid {
		return nil, "", NewUnauthorizedError("invalid or expired token")
	}
	client, err := s.clients.GetClient(claims.ClientID)
	if err != nil {
		return nil, "", err
	}
	if client == nil {
		return nil, "", NewNotFoundError("client not found")
	}
	if !client.HasSection(claims.Section) {
		updated, err := s.clients.UpdateClientSections(client.ID, append(client.AvailableSections, claims.Section))
		if err != nil {
			return nil, "", err
		}
		client = updated
	}
	return client, claims.Section, nil
}
