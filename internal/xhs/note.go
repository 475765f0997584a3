package xhs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xiaoxiunique/xhs-poster/pkg/telemetry"
)

// maxVideoSize is the hard ceiling the platform enforces on video uploads.
// Images are not size-checked here.
const maxVideoSize = 5 * 1024 * 1024

// Topic is a platform hashtag. Published notes embed every attached topic
// into the body as platform-native hashtag markup.
type Topic struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Link    string `json:"link"`
	ViewNum int64  `json:"view_num"`
	Type    string `json:"type"`
	Smart   bool   `json:"smart"`
}

// Mention is an @-reference included in a note
type Mention struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
}

// NoteImage is the platform file descriptor for one uploaded image
type NoteImage struct {
	FileID        string                 `json:"file_id"`
	Metadata      map[string]interface{} `json:"metadata"`
	Stickers      map[string]interface{} `json:"stickers"`
	ExtraInfoJSON string                 `json:"extra_info_json"`
}

// ImagePayload carries the uploaded image descriptors of an image note
type ImagePayload struct {
	Images []NoteImage `json:"images"`
}

// VideoPayload carries the uploaded file descriptor of a video note
type VideoPayload struct {
	FileID string `json:"file_id"`
}

// Permit asks the platform for a short-lived upload slot and returns the
// platform-assigned file id plus the single-use security token for it.
func (c *Client) Permit(ctx context.Context, fileCount int, scene string) (string, string, error) {
	ctx, span := telemetry.StartSpan(ctx, "xhs.permit")
	defer span.End()

	query := url.Values{
		"biz_name":   {"spectrum"},
		"scene":      {scene},
		"file_count": {strconv.Itoa(fileCount)},
		"version":    {"1"},
		"source":     {"web"},
	}

	body, err := c.getJSON(ctx, c.creatorURL, "/api/media/v1/upload/creator/permit", query)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrPermit, err)
	}

	env, err := parseEnvelope(body)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrPermit, err)
	}

	var data struct {
		UploadTempPermits []struct {
			FileIDs []string `json:"fileIds"`
			Token   string   `json:"token"`
		} `json:"uploadTempPermits"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", "", fmt.Errorf("%w: malformed permit data: %v", ErrPermit, err)
	}
	if len(data.UploadTempPermits) == 0 || len(data.UploadTempPermits[0].FileIDs) == 0 {
		return "", "", fmt.Errorf("%w: no permit granted", ErrPermit)
	}

	permit := data.UploadTempPermits[0]
	return permit.FileIDs[0], permit.Token, nil
}

// UploadFile fetches the source bytes and PUTs them to the per-file upload
// endpoint using the permit token as the security credential. Source files
// are referenced by URL, not held locally.
func (c *Client) UploadFile(ctx context.Context, fileID, token, sourceURL, contentType string) error {
	ctx, span := telemetry.StartSpan(ctx, "xhs.upload_file")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpload, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: fetch source: %v", ErrUpload, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: fetch source: status %d", ErrUpload, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read source: %v", ErrUpload, err)
	}

	if contentType == "video/mp4" && len(data) > maxVideoSize {
		return fmt.Errorf("%w: video is %d bytes, limit %d", ErrPayloadTooLarge, len(data), maxVideoSize)
	}

	put, err := http.NewRequestWithContext(ctx, http.MethodPut, c.uploadURL+"/"+fileID, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpload, err)
	}
	put.Header.Set("X-Cos-Security-Token", token)
	put.Header.Set("Content-Type", contentType)

	putResp, err := c.http.Do(put)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpload, err)
	}
	defer putResp.Body.Close()
	if putResp.StatusCode < 200 || putResp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrUpload, putResp.StatusCode)
	}

	c.logger.Debug("Uploaded file",
		zap.String("file_id", fileID),
		zap.Int("bytes", len(data)))

	return nil
}

// CreateNote builds and sends the final note creation envelope. Topics are
// embedded into desc as #name[话题]# tokens before transmission; postTime,
// when set, schedules publication at that instant (epoch milliseconds on
// the wire). The raw platform response is returned uninterpreted because
// the error envelope shape varies by endpoint; deciding success is the
// caller's job.
func (c *Client) CreateNote(ctx context.Context, title, desc, noteType string, ats []Mention, topics []Topic,
	images *ImagePayload, video *VideoPayload, postTime *time.Time, isPrivate bool) (json.RawMessage, error) {
	ctx, span := telemetry.StartSpan(ctx, "xhs.create_note")
	defer span.End()

	var postTimeStr *string
	if postTime != nil {
		ms := strconv.FormatInt(postTime.UnixMilli(), 10)
		postTimeStr = &ms
	}

	businessBinds, err := json.Marshal(map[string]interface{}{
		"version":            1,
		"noteId":             0,
		"noteOrderBind":      map[string]interface{}{},
		"notePostTiming":     map[string]interface{}{"postTime": postTimeStr},
		"noteCollectionBind": map[string]string{"id": ""},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateNote, err)
	}

	desc = embedTopics(desc, topics)

	if ats == nil {
		ats = []Mention{}
	}
	if topics == nil {
		topics = []Topic{}
	}

	privacy := 0
	if isPrivate {
		privacy = 1
	}

	payload := map[string]interface{}{
		"common": map[string]interface{}{
			"type":           noteType,
			"title":          title,
			"note_id":        "",
			"desc":           desc,
			"source":         `{"type":"web","ids":"","extraInfo":"{\"subType\":\"official\"}"}`,
			"business_binds": string(businessBinds),
			"ats":            ats,
			"hash_tag":       topics,
			"post_loc":       map[string]interface{}{},
			"privacy_info":   map[string]interface{}{"op_type": 1, "type": privacy},
		},
		"image_info": images,
		"video_info": video,
	}

	body, err := c.postJSON(ctx, c.edithURL, "/web_api/sns/v2/note", payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateNote, err)
	}

	c.logger.Info("Note creation request sent", zap.String("title", title))

	return json.RawMessage(body), nil
}

// CreateImageNote runs the full image publishing protocol: one permit and
// one binary upload per source URL, strictly sequential (each permit token
// is single-use and scoped to one file), then the note creation call with
// the collected descriptors. The composition is not atomic: a failure
// partway leaves already-uploaded files orphaned on the platform, which
// offers no delete-by-file-id primitive. The first error aborts with no
// cleanup attempt.
func (c *Client) CreateImageNote(ctx context.Context, title, desc string, fileURLs []string, postTime *time.Time,
	ats []Mention, topics []Topic, isPrivate bool) (json.RawMessage, error) {
	ctx, span := telemetry.StartSpan(ctx, "xhs.create_image_note")
	defer span.End()

	images := make([]NoteImage, 0, len(fileURLs))
	for _, fileURL := range fileURLs {
		fileID, token, err := c.Permit(ctx, 1, "image")
		if err != nil {
			return nil, err
		}
		if err := c.UploadFile(ctx, fileID, token, fileURL, "image/jpeg"); err != nil {
			return nil, err
		}
		images = append(images, NoteImage{
			FileID:        fileID,
			Metadata:      map[string]interface{}{"source": -1},
			Stickers:      map[string]interface{}{"version": 2, "floating": []interface{}{}},
			ExtraInfoJSON: `{"mimeType":"image/jpeg"}`,
		})
	}

	return c.CreateNote(ctx, title, desc, "normal", ats, topics, &ImagePayload{Images: images}, nil, postTime, isPrivate)
}

// Delete removes a published note. The platform requires a permission
// validation call before the delete itself; both must succeed for the
// logical delete to count, and there is no rollback if the second call
// fails. Callers needing certainty should re-check the listing afterward.
func (c *Client) Delete(ctx context.Context, noteID string) error {
	ctx, span := telemetry.StartSpan(ctx, "xhs.delete_note")
	defer span.End()

	validate := map[string]string{
		"note_id":       noteID,
		"function_type": "delete",
	}
	body, err := c.postJSON(ctx, c.edithURL, "/web_api/sns/capa/postgw/permission/validate", validate)
	if err != nil {
		return fmt.Errorf("%w: permission validate: %v", ErrDelete, err)
	}
	if _, err := parseEnvelope(body); err != nil {
		return fmt.Errorf("%w: permission validate: %v", ErrDelete, err)
	}

	body, err = c.postJSON(ctx, c.edithURL, "/web_api/sns/capa/postgw/note/delete", map[string]string{"note_id": noteID})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelete, err)
	}
	if _, err := parseEnvelope(body); err != nil {
		return fmt.Errorf("%w: %v", ErrDelete, err)
	}

	c.logger.Info("Deleted note", zap.String("note_id", noteID))

	return nil
}

// DeleteByView walks the account's own published notes and deletes every
// note whose view count is below threshold, pausing between deletes so the
// platform does not throttle the session.
func (c *Client) DeleteByView(ctx context.Context, threshold int64) error {
	ctx, span := telemetry.StartSpan(ctx, "xhs.delete_by_view")
	defer span.End()

	for page := 0; page <= 10; page++ {
		notes, err := c.Posted(ctx, page)
		if err != nil {
			return err
		}
		for _, note := range notes {
			if note.ViewCount >= threshold {
				continue
			}
			if err := c.Delete(ctx, note.ID); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}
	}
	return nil
}

// embedTopics appends the platform's native hashtag markup for each topic
// to the note body. This is a wire-format concern, not display formatting.
func embedTopics(desc string, topics []Topic) string {
	if len(topics) == 0 {
		return desc
	}
	tokens := make([]string, 0, len(topics))
	for _, topic := range topics {
		tokens = append(tokens, "#"+topic.Name+"[话题]#")
	}
	return desc + "\n" + strings.Join(tokens, " ")
}
