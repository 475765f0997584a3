package xhs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/xiaoxiunique/xhs-poster/pkg/telemetry"
)

// PostedNote is one item of another user's published listing. XsecToken is
// required to fetch the full detail of the note.
type PostedNote struct {
	NoteID    string `json:"note_id"`
	Title     string `json:"display_title"`
	XsecToken string `json:"xsec_token"`
}

// CreatorNote is one item of the bound account's own published listing.
type CreatorNote struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	ViewCount int64  `json:"view_count"`
}

// NoteTag is a tag attached to a published note
type NoteTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// NoteCard is the full content of a published note as returned by the
// detail endpoint. Engagement counts arrive as strings on the wire.
type NoteCard struct {
	NoteID    string `json:"note_id"`
	Title     string `json:"title"`
	Desc      string `json:"desc"`
	ImageList []struct {
		URLDefault string `json:"url_default"`
	} `json:"image_list"`
	TagList []NoteTag `json:"tag_list"`
	User    struct {
		UserID   string `json:"user_id"`
		Nickname string `json:"nickname"`
		Avatar   string `json:"avatar"`
	} `json:"user"`
	InteractInfo struct {
		LikedCount     string `json:"liked_count"`
		CollectedCount string `json:"collected_count"`
		CommentCount   string `json:"comment_count"`
	} `json:"interact_info"`
}

// ImageURLs returns the default-format URL of every image on the note.
func (n *NoteCard) ImageURLs() []string {
	urls := make([]string, 0, len(n.ImageList))
	for _, img := range n.ImageList {
		urls = append(urls, img.URLDefault)
	}
	return urls
}

// TagNames returns the names of every tag on the note.
func (n *NoteCard) TagNames() []string {
	names := make([]string, 0, len(n.TagList))
	for _, tag := range n.TagList {
		names = append(names, tag.Name)
	}
	return names
}

// UserInfo identifies the user behind the bound credential
type UserInfo struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// UserPosted fetches one page of another user's published notes. The page
// size is fixed by the platform at roughly 30 items and there is no
// explicit has-more flag on this endpoint: callers infer continuation from
// whether the returned count reaches the page size.
func (c *Client) UserPosted(ctx context.Context, userID string, page int) ([]PostedNote, error) {
	ctx, span := telemetry.StartSpan(ctx, "xhs.user_posted")
	defer span.End()

	query := url.Values{
		"num":           {"30"},
		"cursor":        {""},
		"user_id":       {userID},
		"image_formats": {"jpg,webp,avif"},
		"page":          {strconv.Itoa(page)},
	}

	body, err := c.getJSON(ctx, c.edithURL, "/api/sns/web/v1/user_posted", query)
	if err != nil {
		return nil, fmt.Errorf("%w: user %s page %d: %v", ErrListing, userID, page, err)
	}

	env, err := parseEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("%w: user %s page %d: %v", ErrListing, userID, page, err)
	}

	var data struct {
		Notes []PostedNote `json:"notes"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: malformed listing data: %v", ErrListing, err)
	}

	return data.Notes, nil
}

// NoteDetail fetches the full content of one published note. xsecToken
// comes from the listing entry; xsecSource names the surface the token was
// minted for (the listing flow uses "pc_note").
func (c *Client) NoteDetail(ctx context.Context, noteID, xsecToken, xsecSource string) (*NoteCard, error) {
	ctx, span := telemetry.StartSpan(ctx, "xhs.note_detail")
	defer span.End()

	payload := map[string]interface{}{
		"source_note_id": noteID,
		"image_formats":  []string{"jpg", "webp", "avif"},
		"extra":          map[string]string{"need_body_topic": "1"},
		"xsec_source":    xsecSource,
		"xsec_token":     xsecToken,
	}

	body, err := c.postJSON(ctx, c.edithURL, "/api/sns/web/v1/feed", payload)
	if err != nil {
		return nil, fmt.Errorf("%w: note %s: %v", ErrDetail, noteID, err)
	}

	env, err := parseEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("%w: note %s: %v", ErrDetail, noteID, err)
	}

	var data struct {
		Items []struct {
			NoteCard NoteCard `json:"note_card"`
		} `json:"items"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: malformed detail data: %v", ErrDetail, err)
	}
	if len(data.Items) == 0 {
		return nil, fmt.Errorf("%w: note %s: empty detail response", ErrDetail, noteID)
	}

	return &data.Items[0].NoteCard, nil
}

// Posted fetches one page of the bound account's own published notes.
func (c *Client) Posted(ctx context.Context, page int) ([]CreatorNote, error) {
	ctx, span := telemetry.StartSpan(ctx, "xhs.posted")
	defer span.End()

	path := "/web_api/sns/v5/creator/note/user/posted?tab=0&page=" + strconv.Itoa(page)
	body, err := c.getJSON(ctx, c.edithURL, path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: own notes page %d: %v", ErrListing, page, err)
	}

	env, err := parseEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("%w: own notes page %d: %v", ErrListing, page, err)
	}

	var data struct {
		Notes []CreatorNote `json:"notes"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: malformed listing data: %v", ErrListing, err)
	}

	return data.Notes, nil
}

// MyInfo probes the identity behind the bound credential. This is the
// lightweight call used to classify whether a stored cookie still
// authenticates.
func (c *Client) MyInfo(ctx context.Context) (*UserInfo, error) {
	ctx, span := telemetry.StartSpan(ctx, "xhs.my_info")
	defer span.End()

	body, err := c.getJSON(ctx, c.creatorURL, "/api/galaxy/user/my-info", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProbe, err)
	}

	env, err := parseEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProbe, err)
	}

	var info UserInfo
	if err := json.Unmarshal(env.Data, &info); err != nil {
		return nil, fmt.Errorf("%w: malformed user info: %v", ErrProbe, err)
	}
	if info.UserID == "" {
		return nil, fmt.Errorf("%w: no user behind credential", ErrProbe)
	}

	return &info, nil
}
