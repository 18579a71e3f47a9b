package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/qepting91/reddit-image-relay/internal/domain"
	"golang.org/x/time/rate"
)

const publicBaseURL = "https://www.reddit.com"

type PublicClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	baseURL    string
}

type redditJSONResponse struct {
	Data struct {
		Children []struct {
			Data struct {
				ID          string  `json:"id"`
				Title       string  `json:"title"`
				Subreddit   string  `json:"subreddit_name_prefixed"`
				Author      string  `json:"author"`
				URL         string  `json:"url"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				CreatedUTC  float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func NewPublicClient(userAgent string) (*PublicClient, error) {
	if userAgent == "" {
		return nil, fmt.Errorf("REDDIT_USER_AGENT is required for public mode")
	}
	return &PublicClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		// Public JSON Limit: 1 req / 2 seconds (Stricter)
		limiter:   rate.NewLimiter(rate.Every(2*time.Second), 1),
		userAgent: userAgent,
		baseURL:   publicBaseURL,
	}, nil
}

func (pc *PublicClient) FetchHotPosts(ctx context.Context, sub string, limit int) ([]domain.Post, error) {
	if err := pc.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", pc.baseURL, url.PathEscape(sub), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", pc.userAgent)

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit public access status: %d", resp.StatusCode)
	}

	var rResp redditJSONResponse
	if err := json.NewDecoder(resp.Body).Decode(&rResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	posts := make([]domain.Post, 0, len(rResp.Data.Children))
	for _, child := range rResp.Data.Children {
		d := child.Data
		posts = append(posts, domain.Post{
			ID:           d.ID,
			Title:        d.Title,
			Subreddit:    d.Subreddit,
			Author:       d.Author,
			URL:          d.URL,
			Score:        d.Score,
			CommentCount: d.NumComments,
			CreatedUTC:   d.CreatedUTC,
		})
	}
	return posts, nil
}
