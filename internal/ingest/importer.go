package ingest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"go.uber.org/zap"

	"github.com/xiaoxiunique/xhs-poster/internal/models"
	"github.com/xiaoxiunique/xhs-poster/internal/xhs"
	"github.com/xiaoxiunique/xhs-poster/pkg/logging"
	"github.com/xiaoxiunique/xhs-poster/pkg/telemetry"
)

// ErrInvalidUserRef is returned when the import target is neither a bare
// external user id nor a profile URL containing one.
var ErrInvalidUserRef = errors.New("ingest: invalid user id or profile url")

const (
	// defaultPageSize is the fixed listing page size on the platform
	// side. The listing endpoint has no explicit has-more flag, so a
	// page shorter than this is treated as the last one.
	defaultPageSize = 30
	// defaultMaxPages bounds the worst-case crawl cost per import. The
	// ceiling is deliberate: an import never issues more listing calls
	// than this, however many pages the remote claims.
	defaultMaxPages = 10

	// xsecSource names the surface the listing's xsec tokens are minted
	// for when fetching detail.
	xsecSource = "pc_note"
)

var profileURLPattern = regexp.MustCompile(`user/profile/([a-zA-Z0-9]+)`)
var bareIDPattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// ExtractUserID normalizes operator input to a bare external user id. It
// accepts a raw alphanumeric id or a profile URL containing one.
func ExtractUserID(input string) (string, error) {
	if input == "" {
		return "", ErrInvalidUserRef
	}
	if match := profileURLPattern.FindStringSubmatch(input); match != nil {
		return match[1], nil
	}
	if bareIDPattern.MatchString(input) {
		return input, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidUserRef, input)
}

// MaterialStore is the persistence seam for ingested notes.
type MaterialStore interface {
	Exists(ctx context.Context, ownerID int64, noteID string) (bool, error)
	Insert(ctx context.Context, material *models.Material) error
}

// AccountResolver resolves the crawling credential.
type AccountResolver interface {
	Resolve(ctx context.Context, explicitID *int64) (*models.Account, error)
}

// Lister is the slice of the platform client the importer needs.
type Lister interface {
	UserPosted(ctx context.Context, userID string, page int) ([]xhs.PostedNote, error)
	NoteDetail(ctx context.Context, noteID, xsecToken, xsecSource string) (*xhs.NoteCard, error)
}

// Stats summarizes one import run
type Stats struct {
	Imported int `json:"imported"`
	Existed  int `json:"existed"`
	Total    int `json:"total"`
}

// Importer crawls an external user's published notes into the local
// material store. The per-item loop is sequential; a failure anywhere
// aborts the run, and rows inserted before the failure stay.
type Importer struct {
	materials MaterialStore
	session   AccountResolver
	newClient func(cookie string) Lister
	// PageSize and MaxPages are overridable for tests and tuning; zero
	// values fall back to the platform defaults.
	PageSize int
	MaxPages int
	logger   *zap.Logger
}

// New creates a material importer
func New(materials MaterialStore, session AccountResolver, newClient func(cookie string) Lister) *Importer {
	return &Importer{
		materials: materials,
		session:   session,
		newClient: newClient,
		PageSize:  defaultPageSize,
		MaxPages:  defaultMaxPages,
		logger:    logging.GetLogger().With(zap.String("component", "ingest")),
	}
}

// ImportFromUser crawls the published notes of the referenced external
// user as the active account and upserts them into the material store,
// deduplicating on (owner account id, external note id). Re-running with
// an unchanged remote listing imports nothing new.
func (i *Importer) ImportFromUser(ctx context.Context, userInput string) (*Stats, error) {
	ctx, span := telemetry.StartSpan(ctx, "ingest.import_from_user")
	defer span.End()

	userID, err := ExtractUserID(userInput)
	if err != nil {
		return nil, err
	}

	account, err := i.session.Resolve(ctx, nil)
	if err != nil {
		return nil, err
	}
	client := i.newClient(account.Cookie)

	pageSize := i.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	maxPages := i.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	var notes []xhs.PostedNote
	for page := 0; page < maxPages; page++ {
		batch, err := client.UserPosted(ctx, userID, page)
		if err != nil {
			return nil, err
		}
		notes = append(notes, batch...)
		// No has-more flag on this endpoint: a short page ends the crawl.
		if len(batch) < pageSize {
			break
		}
	}

	stats := &Stats{Total: len(notes)}
	for _, note := range notes {
		exists, err := i.materials.Exists(ctx, account.ID, note.NoteID)
		if err != nil {
			return nil, fmt.Errorf("check material %s: %w", note.NoteID, err)
		}
		if exists {
			stats.Existed++
			continue
		}

		card, err := client.NoteDetail(ctx, note.NoteID, note.XsecToken, xsecSource)
		if err != nil {
			return nil, err
		}

		material := &models.Material{
			UserID:  account.ID,
			NoteID:  note.NoteID,
			Title:   card.Title,
			Content: card.Desc,
			Images:  card.ImageURLs(),
			Tags:    card.TagNames(),
			SourceUser: models.SourceUser{
				ID:       card.User.UserID,
				Nickname: card.User.Nickname,
				Avatar:   card.User.Avatar,
			},
			Likes:    parseCount(card.InteractInfo.LikedCount),
			Collects: parseCount(card.InteractInfo.CollectedCount),
			Comments: parseCount(card.InteractInfo.CommentCount),
		}
		if err := i.materials.Insert(ctx, material); err != nil {
			return nil, fmt.Errorf("insert material %s: %w", note.NoteID, err)
		}
		stats.Imported++
	}

	i.logger.Info("Imported materials",
		zap.String("external_user_id", userID),
		zap.Int64("account_id", account.ID),
		zap.Int("imported", stats.Imported),
		zap.Int("existed", stats.Existed),
		zap.Int("total", stats.Total))

	return stats, nil
}

// parseCount parses a wire-format engagement count. The platform sends
// these as strings and occasionally as abbreviations; anything unparsable
// counts as zero.
func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
