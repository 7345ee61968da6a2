package oauth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tokensRepo "blueridge/database/repository/tokens"
	"blueridge/models"
	"blueridge/services/calendar"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const Provider = "google"

var (
	Scopes = []string{
		"https://www.googleapis.com/auth/calendar.events",
		"https://www.googleapis.com/auth/calendar.readonly",
	}

	ErrNotConfigured = errors.New("oauth: google client not configured")
	ErrMissingCode   = errors.New("oauth: missing code")
)

// GoogleAuth runs the consent flow and hands out credentials for the
// calendar owner. Tokens live in the oauth_tokens table.
type GoogleAuth struct {
	cfg          *oauth2.Config
	secret       []byte
	defaultOwner string
	tokens       tokensRepo.TokenRepository
	sealer       *sealer
	logger       *zap.Logger
	now          func() time.Time
}

type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	StateSecret  string
	DefaultOwner string
	// EncryptionKey seals stored tokens when set.
	EncryptionKey string
	// Endpoint overrides google.Endpoint, mostly for tests.
	Endpoint *oauth2.Endpoint
}

func NewGoogleAuth(opts Options, tokens tokensRepo.TokenRepository, logger *zap.Logger) *GoogleAuth {
	endpoint := google.Endpoint
	if opts.Endpoint != nil {
		endpoint = *opts.Endpoint
	}
	secret := opts.StateSecret
	if secret == "" {
		secret = opts.ClientSecret
	}
	seal, err := newSealer(opts.EncryptionKey)
	if err != nil {
		logger.Warn("Token encryption disabled", zap.Error(err))
	}
	return &GoogleAuth{
		cfg: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Scopes:       Scopes,
			Endpoint:     endpoint,
		},
		secret:       []byte(secret),
		defaultOwner: opts.DefaultOwner,
		tokens:       tokens,
		sealer:       seal,
		logger:       logger,
		now:          time.Now,
	}
}

func (a *GoogleAuth) Configured() bool {
	return a.cfg.ClientID != "" && a.cfg.ClientSecret != ""
}

func (a *GoogleAuth) owner(ownerID string) string {
	if ownerID != "" {
		return ownerID
	}
	return a.defaultOwner
}

// AuthURL builds the consent redirect for ownerID (default owner when empty).
func (a *GoogleAuth) AuthURL(ownerID string) (string, error) {
	if !a.Configured() {
		return "", ErrNotConfigured
	}
	state, err := signState(a.secret, a.owner(ownerID), a.now())
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}
	return a.cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

// Exchange trades the callback code for tokens and stores them. It returns
// the owner the tokens were saved for.
func (a *GoogleAuth) Exchange(ctx context.Context, code, state string) (string, error) {
	if code == "" {
		return "", ErrMissingCode
	}
	owner := a.defaultOwner
	if state != "" {
		parsed, err := parseState(a.secret, state)
		if err != nil {
			return "", err
		}
		owner = a.owner(parsed)
	}

	tok, err := a.cfg.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}
	if err := a.save(ctx, owner, tok); err != nil {
		return "", err
	}
	a.logger.Info("OAuth tokens saved", zap.String("owner", owner))
	return owner, nil
}

func (a *GoogleAuth) save(ctx context.Context, owner string, tok *oauth2.Token) error {
	if a.tokens == nil {
		return fmt.Errorf("save token: %w", tokensRepo.ErrNotFound)
	}
	rec, err := a.toRecord(owner, tok)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return a.tokens.Save(ctx, rec)
}

// TokenSource satisfies calendar.TokenSourceFactory for the default owner.
// A missing row means the owner never consented.
func (a *GoogleAuth) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if a.tokens == nil {
		return nil, fmt.Errorf("%w: no token store", calendar.ErrUnauthorized)
	}
	row, err := a.tokens.Get(ctx, Provider, a.defaultOwner)
	if errors.Is(err, tokensRepo.ErrNotFound) {
		return nil, fmt.Errorf("%w: no stored token", calendar.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load token: %v", calendar.ErrUnavailable, err)
	}

	stored, err := a.fromRecord(row)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", calendar.ErrUnauthorized, err)
	}
	// The refresh runs later, outside this request.
	base := a.cfg.TokenSource(context.Background(), stored)
	return &persistingSource{
		base:   base,
		last:   stored.AccessToken,
		owner:  a.defaultOwner,
		auth:   a,
		logger: a.logger,
	}, nil
}

// persistingSource writes refreshed tokens back to the store.
type persistingSource struct {
	mu     sync.Mutex
	base   oauth2.TokenSource
	last   string
	owner  string
	auth   *GoogleAuth
	logger *zap.Logger
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.auth.save(ctx, p.owner, tok); err != nil {
			p.logger.Warn("Failed to persist refreshed token", zap.Error(err))
		}
	}
	return tok, nil
}

func (a *GoogleAuth) toRecord(owner string, tok *oauth2.Token) (models.OAuthToken, error) {
	access, err := a.sealer.seal(tok.AccessToken)
	if err != nil {
		return models.OAuthToken{}, err
	}
	rec := models.OAuthToken{Provider: Provider, AccessToken: access}
	if owner != "" {
		rec.OwnerID = &owner
	}
	if tok.RefreshToken != "" {
		rt, err := a.sealer.seal(tok.RefreshToken)
		if err != nil {
			return models.OAuthToken{}, err
		}
		rec.RefreshToken = &rt
	}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry.UTC()
		rec.Expiry = &exp
	}
	if scope, ok := tok.Extra("scope").(string); ok && scope != "" {
		rec.Scope = &scope
	}
	return rec, nil
}

func (a *GoogleAuth) fromRecord(row *models.OAuthToken) (*oauth2.Token, error) {
	access, err := a.sealer.open(row.AccessToken)
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{AccessToken: access, TokenType: "Bearer"}
	if row.RefreshToken != nil {
		rt, err := a.sealer.open(*row.RefreshToken)
		if err != nil {
			return nil, err
		}
		tok.RefreshToken = rt
	}
	if row.Expiry != nil {
		tok.Expiry = *row.Expiry
	}
	return tok, nil
}
