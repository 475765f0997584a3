package xhs

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"math/rand"
	"strings"
	"time"

	"github.com/xiaoxiunique/xhs-poster/pkg/telemetry"
)

// SearchTopics runs the platform-side topic autocomplete for a keyword.
func (c *Client) SearchTopics(ctx context.Context, keyword string) ([]Topic, error) {
	ctx, span := telemetry.StartSpan(ctx, "xhs.search_topics")
	defer span.End()

	payload := map[string]interface{}{
		"keyword": keyword,
		"suggest_topic_request": map[string]string{
			"title": "",
			"desc":  "#" + keyword,
		},
		"page": map[string]int{
			"page_size": 20,
			"page":      1,
		},
	}

	body, err := c.postJSON(ctx, c.edithURL, "/web_api/sns/v1/search/topic", payload)
	if err != nil {
		return nil, fmt.Errorf("%w: topics: %v", ErrSearch, err)
	}

	env, err := parseEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("%w: topics: %v", ErrSearch, err)
	}

	var data struct {
		TopicInfoDtos []Topic `json:"topic_info_dtos"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: malformed topic data: %v", ErrSearch, err)
	}

	return data.TopicInfoDtos, nil
}

// SearchNotes runs a keyword search over published notes. The response is
// returned raw: the search result shape is rich and callers pick out what
// they need.
func (c *Client) SearchNotes(ctx context.Context, keyword string, page, pageSize int, sort, noteType string) (json.RawMessage, error) {
	ctx, span := telemetry.StartSpan(ctx, "xhs.search_notes")
	defer span.End()

	if sort == "" {
		sort = "general"
	}
	if noteType == "" {
		noteType = "all"
	}

	payload := map[string]interface{}{
		"keyword":   keyword,
		"page":      page,
		"page_size": pageSize,
		"search_id": searchID(),
		"sort":      sort,
		"note_type": noteType,
	}

	body, err := c.postJSON(ctx, c.edithURL, "/api/sns/web/v1/search/notes", payload)
	if err != nil {
		return nil, fmt.Errorf("%w: notes: %v", ErrSearch, err)
	}

	return json.RawMessage(body), nil
}

// searchID generates the per-request search identifier the platform
// expects: base36, uppercase, from the current epoch milliseconds shifted
// left 64 bits plus a random 31-bit component.
func searchID() string {
	e := new(big.Int).Lsh(big.NewInt(time.Now().UnixMilli()), 64)
	t := big.NewInt(rand.Int63n(2147483646))
	return strings.ToUpper(new(big.Int).Add(e, t).Text(36))
}
