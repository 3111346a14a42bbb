package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"glee-scheduler/core/cache"
	"glee-scheduler/core/clock"
	"glee-scheduler/core/constants"
	"glee-scheduler/core/errors"
	"glee-scheduler/core/logger"
	calendardto "glee-scheduler/modules/calendar/dto"
	calendarentity "glee-scheduler/modules/calendar/entity"
	directoryentity "glee-scheduler/modules/directory/entity"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/crypto/blake2b"
)

type EventLister interface {
	ListVisibleEvents(ctx context.Context, query calendardto.EventListQuery) ([]calendarentity.Event, *errors.AppError)
}

type FeedTokens interface {
	EnsureFeedToken(ctx context.Context, userID uuid.UUID) (string, *errors.AppError)
	ResolveFeedToken(ctx context.Context, token string) (*directoryentity.Profile, bool)
}

type Options struct {
	BaseURL        string
	CacheTTL       time.Duration
	LookbackMonths int
	Location       *time.Location
	Renderer       Renderer
}

// Document is a rendered calendar ready to be served.
type Document struct {
	Body     string
	Filename string
	// Private is set when the caller asked for a private feed, whether or not the token held.
	Private bool
	Events  int
}

// FeedRequest mirrors the query parameters of a subscription URL.
type FeedRequest struct {
	Type      ScopeType
	EventType string
	Token     string
}

type FeedServiceInterface interface {
	Subscription(ctx context.Context, req FeedRequest) (*Document, *errors.AppError)
	ExportOnce(ctx context.Context, scope ScopeFilter) (*Document, *errors.AppError)
	FeedURL(scope ScopeType, eventType, token string) string
	PrivateFeedURL(ctx context.Context, userID uuid.UUID, eventType string) (string, *errors.AppError)
	Invalidate(ctx context.Context) error
}

type FeedService struct {
	events EventLister
	tokens FeedTokens
	cache  cache.Cache
	clock  clock.Clock
	opts   Options
}

func NewFeedService(events EventLister, tokens FeedTokens, c cache.Cache, clk clock.Clock, opts Options) *FeedService {
	if c == nil {
		c = cache.Noop{}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &FeedService{
		events: events,
		tokens: tokens,
		cache:  c,
		clock:  clk,
		opts:   opts,
	}
}

// Subscription renders a live feed. A private request whose token does not resolve
// is served the public feed, with no indication that the token was rejected.
func (s *FeedService) Subscription(ctx context.Context, req FeedRequest) (*Document, *errors.AppError) {
	eventType, appErr := parseEventType(req.EventType)
	if appErr != nil {
		return nil, appErr
	}

	scope := ScopeFilter{Type: ScopePublic}
	requestedPrivate := req.Type == ScopePrivate
	if requestedPrivate && req.Token != "" {
		if _, ok := s.tokens.ResolveFeedToken(ctx, req.Token); ok {
			scope = ScopeFilter{Type: ScopeAll}
		}
	}

	body, count, appErr := s.render(ctx, "subscription", scope, eventType, RenderOptions{Subscription: true})
	if appErr != nil {
		return nil, appErr
	}
	return &Document{
		Body:     body,
		Filename: s.filename(scope),
		Private:  requestedPrivate,
		Events:   count,
	}, nil
}

// ExportOnce renders a one-shot download of the events selected by scope.
func (s *FeedService) ExportOnce(ctx context.Context, scope ScopeFilter) (*Document, *errors.AppError) {
	name := s.opts.Renderer.Name
	if scope.Type == ScopeMonth {
		name = fmt.Sprintf("%s %s %d", name, scope.Month, scope.Year)
	}

	body, count, appErr := s.render(ctx, "export", scope, nil, RenderOptions{Name: name})
	if appErr != nil {
		return nil, appErr
	}
	return &Document{
		Body:     body,
		Filename: s.filename(scope),
		Private:  !scope.IsPublicView(),
		Events:   count,
	}, nil
}

func (s *FeedService) render(ctx context.Context, kind string, scope ScopeFilter, eventType *calendarentity.EventType, opts RenderOptions) (string, int, *errors.AppError) {
	typeKey := ""
	if eventType != nil {
		typeKey = string(*eventType)
	}
	key := cacheKey(kind, scope.Key(), typeKey)

	if body, ok := s.cacheGet(ctx, key); ok {
		return string(body), CountEvents(string(body)), nil
	}

	now := s.clock.Now()
	from, to := scope.Window(now, s.opts.Location, s.opts.LookbackMonths)
	events, appErr := s.events.ListVisibleEvents(ctx, calendardto.EventListQuery{
		From:         from,
		To:           to,
		EventType:    eventType,
		IsPublicView: scope.IsPublicView(),
	})
	if appErr != nil {
		return "", 0, appErr
	}

	opts.Stamp = now
	body := s.opts.Renderer.Render(events, opts)
	s.cacheSet(ctx, key, []byte(body))

	logger.Debug("FeedService:render", "kind", kind, "scope", scope.Key(), "events", len(events))
	return body, len(events), nil
}

// FeedURL builds the subscription URL. Query keys are encoded in sorted order so
// the same inputs always produce the same URL.
func (s *FeedService) FeedURL(scope ScopeType, eventType, token string) string {
	values := url.Values{}
	values.Set("type", string(ScopePublic))
	if scope == ScopePrivate {
		values.Set("type", string(ScopePrivate))
		values.Set("token", token)
	}
	if eventType != "" {
		values.Set("event_type", eventType)
	}
	return strings.TrimRight(s.opts.BaseURL, "/") + "/calendar-feed?" + values.Encode()
}

func (s *FeedService) PrivateFeedURL(ctx context.Context, userID uuid.UUID, eventType string) (string, *errors.AppError) {
	if _, appErr := parseEventType(eventType); appErr != nil {
		return "", appErr
	}
	token, appErr := s.tokens.EnsureFeedToken(ctx, userID)
	if appErr != nil {
		return "", appErr
	}
	return s.FeedURL(ScopePrivate, eventType, token), nil
}

// Invalidate drops every cached document.
func (s *FeedService) Invalidate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.CacheOperationTimeout)
	defer cancel()
	return s.cache.DelPrefix(ctx, constants.RedisKeyFeedDocument)
}

func (s *FeedService) filename(scope ScopeFilter) string {
	return slug.Make(s.opts.Renderer.Name+" "+scope.Key()) + ".ics"
}

func (s *FeedService) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if s.opts.CacheTTL <= 0 {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, constants.CacheOperationTimeout)
	defer cancel()

	body, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("FeedService:cacheGet", "error", err)
		return nil, false
	}
	return body, ok
}

func (s *FeedService) cacheSet(ctx context.Context, key string, body []byte) {
	if s.opts.CacheTTL <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, constants.CacheOperationTimeout)
	defer cancel()

	if err := s.cache.Set(ctx, key, body, s.opts.CacheTTL); err != nil {
		logger.Warn("FeedService:cacheSet", "error", err)
	}
}

func cacheKey(parts ...string) string {
	sum := blake2b.Sum256([]byte(strings.Join(parts, "|")))
	return constants.RedisKeyFeedDocument + hex.EncodeToString(sum[:16])
}

func parseEventType(raw string) (*calendarentity.EventType, *errors.AppError) {
	if raw == "" {
		return nil, nil
	}
	t := calendarentity.EventType(raw)
	if !t.Valid() {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Unknown event type", nil)
	}
	return &t, nil
}
