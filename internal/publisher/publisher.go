package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xiaoxiunique/xhs-poster/internal/models"
	"github.com/xiaoxiunique/xhs-poster/internal/xhs"
	"github.com/xiaoxiunique/xhs-poster/pkg/logging"
	"github.com/xiaoxiunique/xhs-poster/pkg/telemetry"
)

// ErrPostNotFound is returned when the publish target does not exist.
var ErrPostNotFound = errors.New("publisher: post not found")

// PostStore is the post persistence seam. A missing post is (nil, nil).
type PostStore interface {
	GetComplete(ctx context.Context, id int64) (*models.CompletePost, error)
	SetStatus(ctx context.Context, id int64, status string) error
}

// TopicStore provides the operator-configured common topic pool. Empty
// means unconfigured.
type TopicStore interface {
	ConfiguredTopics(ctx context.Context) ([]xhs.Topic, error)
}

// AccountResolver resolves the credential an operation should run as.
type AccountResolver interface {
	Resolve(ctx context.Context, explicitID *int64) (*models.Account, error)
}

// NoteCreator is the slice of the platform client the pipeline needs.
type NoteCreator interface {
	CreateImageNote(ctx context.Context, title, desc string, fileURLs []string, postTime *time.Time,
		ats []xhs.Mention, topics []xhs.Topic, isPrivate bool) (json.RawMessage, error)
}

// Result is the outcome of a successful publish
type Result struct {
	Post             *models.CompletePost `json:"post"`
	PlatformResponse json.RawMessage      `json:"platformResponse"`
}

// Pipeline publishes local post drafts to the platform. Status moves
// draft -> published and never reverts; a failed attempt leaves the post
// untouched and is meant to be re-invoked wholesale.
type Pipeline struct {
	posts     PostStore
	topics    TopicStore
	session   AccountResolver
	newClient func(cookie string) NoteCreator
	logger    *zap.Logger
}

// New creates a publish pipeline
func New(posts PostStore, topics TopicStore, session AccountResolver, newClient func(cookie string) NoteCreator) *Pipeline {
	return &Pipeline{
		posts:     posts,
		topics:    topics,
		session:   session,
		newClient: newClient,
		logger:    logging.GetLogger().With(zap.String("component", "publisher")),
	}
}

// Publish pushes one post to the platform as the resolved account. An
// explicit accountID overrides the active account for this call only.
// No step is retried here; any failure aborts the attempt before the
// status is advanced. Re-publishing an already-published post simply
// issues another creation call: the platform side is not deduplicated.
func (p *Pipeline) Publish(ctx context.Context, postID int64, accountID *int64) (*Result, error) {
	ctx, span := telemetry.StartSpan(ctx, "publisher.publish")
	defer span.End()

	post, err := p.posts.GetComplete(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("load post %d: %w", postID, err)
	}
	if post == nil {
		return nil, fmt.Errorf("%w: id %d", ErrPostNotFound, postID)
	}

	account, err := p.session.Resolve(ctx, accountID)
	if err != nil {
		return nil, err
	}

	topics, err := p.topics.ConfiguredTopics(ctx)
	if err != nil {
		p.logger.Warn("Failed to load configured topics, using defaults", zap.Error(err))
		topics = nil
	}
	if len(topics) == 0 {
		// Publishing never blocks on missing configuration.
		topics = DefaultTopics()
	}

	client := p.newClient(account.Cookie)
	response, err := client.CreateImageNote(ctx, post.Title, post.Content, post.ImageURLs(), nil, nil, topics, false)
	if err != nil {
		p.logger.Error("Publish attempt failed",
			zap.Int64("post_id", postID),
			zap.Int64("account_id", account.ID),
			zap.Error(err))
		return nil, err
	}

	if err := p.posts.SetStatus(ctx, postID, models.PostStatusPublished); err != nil {
		return nil, fmt.Errorf("mark post %d published: %w", postID, err)
	}
	post.Status = models.PostStatusPublished

	p.logger.Info("Published post",
		zap.Int64("post_id", postID),
		zap.Int64("account_id", account.ID),
		zap.Int("images", len(post.Images)))

	return &Result{Post: post, PlatformResponse: response}, nil
}
