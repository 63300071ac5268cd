// Package services – SuiteService
//
// This file implements the SuiteService, the single writer of durable suite
// state. It validates and normalizes titles, enforces the one-origin-per-
// suite invariant on endpoint attachment, manages the current/history split,
// and runs the lazy TTL sweep on every load path.
//
// Service-level errors (e.g., ErrSuiteNotFound, OriginMismatchError) are
// returned for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-suite-runner/internal/domain"
	"github.com/tbourn/go-suite-runner/internal/repo"
	"github.com/tbourn/go-suite-runner/internal/requestline"
	"github.com/tbourn/go-suite-runner/internal/sanitize"
	"github.com/tbourn/go-suite-runner/internal/validate"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultSuiteTTL is how long persisted suites (current and archived) live
// before the lazy sweep discards them. The source history shows both 4h and
// 48h; 48h is the explicit choice here.
const DefaultSuiteTTL = 48 * time.Hour

// SuiteRepo defines the repository contract required by SuiteService.
// Implementations are responsible for persistence of suite aggregates.
type SuiteRepo interface {
	CreateSuite(ctx context.Context, db *gorm.DB, title, description string, ttl time.Duration) (*domain.Suite, error)
	GetSuite(ctx context.Context, db *gorm.DB, id string) (*domain.Suite, error)
	CurrentSuite(ctx context.Context, db *gorm.DB) (*domain.Suite, error)
	CountArchived(ctx context.Context, db *gorm.DB) (int64, error)
	ListArchivedPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Suite, error)
	SetArchived(ctx context.Context, db *gorm.DB, id string, archived bool) error
	SetBaseOrigin(ctx context.Context, db *gorm.DB, id, origin string) error
	TouchSuite(ctx context.Context, db *gorm.DB, id string) error
	DeleteSuite(ctx context.Context, db *gorm.DB, id string) error
	AppendEndpoint(ctx context.Context, db *gorm.DB, suiteID string, draft repo.EndpointDraft) (*domain.Endpoint, error)
	UpdateEndpointMeta(ctx context.Context, db *gorm.DB, suiteID, id string, patch repo.EndpointPatch) error
	RemoveEndpoint(ctx context.Context, db *gorm.DB, suiteID, id string) error
	SweepAll(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
}

// SuiteService provides suite-level operations: creation, endpoint
// attachment with origin enforcement, archiving, history, and the lazy
// sweep. It enforces title rules and owns the suite TTL.
type SuiteService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the suite repository used by this service.
	Repo SuiteRepo

	// TTL is the lifetime of a persisted suite.
	TTL time.Duration
	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int

	titler cases.Caser
}

// NewSuiteService constructs a SuiteService with sane defaults.
func NewSuiteService(db *gorm.DB, r SuiteRepo) *SuiteService {
	return &SuiteService{
		DB:          db,
		Repo:        r,
		TTL:         DefaultSuiteTTL,
		TitleMaxLen: 60,
		titler:      cases.Title(language.Und, cases.NoLower),
	}
}

// Create inserts a new suite with the provided title and description.
// Titles are sanitized, normalized, clipped, and a default is applied.
func (s *SuiteService) Create(ctx context.Context, title, description string) (*domain.Suite, error) {
	title = normalizeTitle(title)
	if title == "" {
		title = s.titler.String("new suite")
	}
	return s.Repo.CreateSuite(ctx, s.DB, s.clip(title), sanitize.Sanitize(description), s.TTL)
}

// Current returns the active suite after running the lazy sweep, or
// ErrNoCurrentSuite when none is active (or the active one just expired).
func (s *SuiteService) Current(ctx context.Context) (*domain.Suite, error) {
	if _, err := s.Repo.SweepAll(ctx, s.DB, time.Now().UTC()); err != nil {
		return nil, err
	}
	suite, err := s.Repo.CurrentSuite(ctx, s.DB)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNoCurrentSuite
		}
		return nil, err
	}
	return suite, nil
}

// Get returns one suite by ID, swept first. Expired or unknown IDs yield
// ErrSuiteNotFound.
func (s *SuiteService) Get(ctx context.Context, id string) (*domain.Suite, error) {
	if _, err := s.Repo.SweepAll(ctx, s.DB, time.Now().UTC()); err != nil {
		return nil, err
	}
	suite, err := s.Repo.GetSuite(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrSuiteNotFound
		}
		return nil, err
	}
	return suite, nil
}

// EndpointDraft carries caller input for a new endpoint.
type EndpointDraft struct {
	Title       string
	Description string
	RequestLine string
}

// AttachEndpoint validates the draft, enforces the suite's single-origin
// invariant, and appends a new pending endpoint.
//
// The first endpoint of a suite fixes the suite's base origin; every later
// attachment must resolve to the same origin or the call fails with an
// *OriginMismatchError carrying both origins.
func (s *SuiteService) AttachEndpoint(ctx context.Context, suiteID string, draft EndpointDraft) (*domain.Endpoint, error) {
	if r := validate.RequestLineLength(draft.RequestLine); !r.Valid {
		return nil, &ValidationError{Reason: string(r.Reason), Message: r.Message}
	}

	rawURL, err := requestline.ExtractURL(draft.RequestLine)
	if err != nil {
		return nil, ErrOriginExtraction
	}
	if r := validate.URL(rawURL); !r.Valid {
		return nil, &ValidationError{Reason: string(r.Reason), Message: r.Message}
	}
	if verr := validatePayloadDirectives(draft.RequestLine); verr != nil {
		return nil, verr
	}
	origin, err := requestline.Origin(rawURL)
	if err != nil {
		return nil, ErrOriginExtraction
	}

	suite, err := s.Repo.GetSuite(ctx, s.DB, suiteID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrSuiteNotFound
		}
		return nil, err
	}

	switch {
	case suite.BaseOrigin == "":
		if err := s.Repo.SetBaseOrigin(ctx, s.DB, suite.ID, origin); err != nil {
			return nil, err
		}
	case suite.BaseOrigin != origin:
		return nil, &OriginMismatchError{SuiteOrigin: suite.BaseOrigin, EndpointOrigin: origin}
	}

	ep, err := s.Repo.AppendEndpoint(ctx, s.DB, suite.ID, repo.EndpointDraft{
		Title:       s.clip(normalizeTitle(draft.Title)),
		Description: sanitize.Sanitize(draft.Description),
		RequestLine: draft.RequestLine,
	})
	if err != nil {
		return nil, err
	}
	return ep, s.Repo.TouchSuite(ctx, s.DB, suite.ID)
}

// AttachToCurrent attaches to the active suite, creating one implicitly when
// none is active.
func (s *SuiteService) AttachToCurrent(ctx context.Context, draft EndpointDraft) (*domain.Endpoint, error) {
	suite, err := s.Current(ctx)
	if errors.Is(err, ErrNoCurrentSuite) {
		suite, err = s.Create(ctx, "", "")
	}
	if err != nil {
		return nil, err
	}
	return s.AttachEndpoint(ctx, suite.ID, draft)
}

// EndpointPatch carries optional endpoint metadata updates. Nil fields are
// left untouched.
type EndpointPatch struct {
	Title       *string
	Description *string
	RequestLine *string
}

// UpdateEndpoint merges the patch into the endpoint. An unknown endpoint ID
// is a no-op per the store contract. A patched request line is re-validated
// for length and payload directives; it stays editable after execution.
func (s *SuiteService) UpdateEndpoint(ctx context.Context, suiteID, id string, patch EndpointPatch) error {
	if patch.RequestLine != nil {
		if r := validate.RequestLineLength(*patch.RequestLine); !r.Valid {
			return &ValidationError{Reason: string(r.Reason), Message: r.Message}
		}
		if verr := validatePayloadDirectives(*patch.RequestLine); verr != nil {
			return verr
		}
	}
	rp := repo.EndpointPatch{RequestLine: patch.RequestLine}
	if patch.Title != nil {
		v := s.clip(normalizeTitle(*patch.Title))
		rp.Title = &v
	}
	if patch.Description != nil {
		v := sanitize.Sanitize(*patch.Description)
		rp.Description = &v
	}
	err := s.Repo.UpdateEndpointMeta(ctx, s.DB, suiteID, id, rp)
	if errors.Is(err, repo.ErrNotFound) {
		return nil // absent id: no-op
	}
	if err != nil {
		return err
	}
	return s.Repo.TouchSuite(ctx, s.DB, suiteID)
}

// RemoveEndpoint deletes an endpoint by ID.
func (s *SuiteService) RemoveEndpoint(ctx context.Context, suiteID, id string) error {
	if err := s.Repo.RemoveEndpoint(ctx, s.DB, suiteID, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrEndpointNotFound
		}
		return err
	}
	return s.Repo.TouchSuite(ctx, s.DB, suiteID)
}

// ArchiveCurrent moves the active suite into the history list. Archiving a
// suite with zero endpoints is permitted; callers typically skip it.
func (s *SuiteService) ArchiveCurrent(ctx context.Context) (*domain.Suite, error) {
	suite, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SetArchived(ctx, s.DB, suite.ID, true); err != nil {
		return nil, err
	}
	suite.Archived = true
	return suite, nil
}

// LoadFromHistory makes an archived suite the current one. Any currently
// active suite is archived first so at most one suite stays current.
func (s *SuiteService) LoadFromHistory(ctx context.Context, id string) (*domain.Suite, error) {
	target, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur, err := s.Repo.CurrentSuite(ctx, s.DB); err == nil && cur.ID != target.ID {
		if err := s.Repo.SetArchived(ctx, s.DB, cur.ID, true); err != nil {
			return nil, err
		}
	}
	if err := s.Repo.SetArchived(ctx, s.DB, target.ID, false); err != nil {
		return nil, err
	}
	target.Archived = false
	return target, nil
}

// DeleteFromHistory permanently removes a suite and its endpoints.
func (s *SuiteService) DeleteFromHistory(ctx context.Context, id string) error {
	err := s.Repo.DeleteSuite(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrSuiteNotFound
	}
	return err
}

// History returns a page of archived suites after the lazy sweep, plus the
// total archived count. Defaults are applied for invalid page/pageSize.
func (s *SuiteService) History(ctx context.Context, page, pageSize int) ([]domain.Suite, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if _, err := s.Repo.SweepAll(ctx, s.DB, time.Now().UTC()); err != nil {
		return nil, 0, err
	}

	total, err := s.Repo.CountArchived(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Suite{}, 0, nil
	}
	items, err := s.Repo.ListArchivedPage(ctx, s.DB, (page-1)*pageSize, pageSize)
	return items, total, err
}

// clip truncates a title to the configured maximum rune length.
func (s *SuiteService) clip(title string) string {
	if s.TitleMaxLen > 0 && utf8.RuneCountInString(title) > s.TitleMaxLen {
		return string([]rune(title)[:s.TitleMaxLen])
	}
	return title
}

// validatePayloadDirectives checks the HEADERS and BODY directives of a
// request line, when present, against their JSON and size limits.
func validatePayloadDirectives(line string) error {
	if v, ok := requestline.ExtractDirective(line, requestline.DirHeaders); ok {
		if r := validate.JSONWithLimit(v, validate.MaxHeadersBytes); !r.Valid {
			return &ValidationError{Reason: string(r.Reason), Message: "HEADERS " + r.Message}
		}
	}
	if v, ok := requestline.ExtractDirective(line, requestline.DirBody); ok {
		if r := validate.JSONWithLimit(v, validate.MaxBodyBytes); !r.Valid {
			return &ValidationError{Reason: string(r.Reason), Message: "BODY " + r.Message}
		}
	}
	return nil
}

// normalizeTitle sanitizes, trims, and collapses whitespace to one space.
func normalizeTitle(s string) string {
	s = sanitize.Sanitize(s)
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
