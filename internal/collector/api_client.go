package collector

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/loganintech/go-reddit/v2/reddit"
	"github.com/qepting91/reddit-image-relay/internal/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	redditOAuthBase = "https://oauth.reddit.com"
	redditTokenURL  = "https://www.reddit.com/api/v1/access_token"
)

type endpoints struct {
	base  string
	token string
}

type APIClient struct {
	client  *reddit.Client
	limiter *rate.Limiter
}

// NewAPIClient logs in with the password grant when a username is given,
// otherwise with an app-only client credentials grant.
func NewAPIClient(id, secret, user, pass, userAgent string) (*APIClient, error) {
	return newAPIClient(id, secret, user, pass, userAgent, endpoints{base: redditOAuthBase, token: redditTokenURL})
}

func newAPIClient(id, secret, user, pass, userAgent string, ep endpoints) (*APIClient, error) {
	if id == "" || secret == "" {
		return nil, fmt.Errorf("reddit client id and secret are required for api mode")
	}

	var (
		client *reddit.Client
		err    error
	)
	if user == "" {
		client, err = newAppOnlyClient(id, secret, userAgent, ep)
	} else {
		creds := reddit.Credentials{ID: id, Secret: secret, Username: user, Password: pass}
		client, err = reddit.NewClient(creds,
			reddit.WithUserAgent(userAgent),
			reddit.WithBaseURL(ep.base),
			reddit.WithTokenURL(ep.token),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("create reddit client: %w", err)
	}

	// API Rate Limit: ~60 reqs/min (safe buffer)
	limiter := rate.NewLimiter(rate.Every(1*time.Second), 1)

	return &APIClient{client: client, limiter: limiter}, nil
}

// newAppOnlyClient reads listings on behalf of the app itself. go-reddit's
// NewClient only knows the password grant, so the token source is supplied
// through the HTTP client instead.
func newAppOnlyClient(id, secret, userAgent string, ep endpoints) (*reddit.Client, error) {
	cc := &clientcredentials.Config{
		ClientID:     id,
		ClientSecret: secret,
		TokenURL:     ep.token,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	tokenHTTP := &http.Client{
		Timeout:   10 * time.Second,
		Transport: agentTransport{agent: userAgent, base: http.DefaultTransport},
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, tokenHTTP)

	return reddit.NewReadonlyClient(
		reddit.WithHTTPClient(cc.Client(ctx)),
		reddit.WithUserAgent(userAgent),
		reddit.WithBaseURL(ep.base),
	)
}

// agentTransport sets User-Agent, which Reddit requires on token requests too.
type agentTransport struct {
	agent string
	base  http.RoundTripper
}

func (t agentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.agent)
	return t.base.RoundTrip(r)
}

func (ac *APIClient) FetchHotPosts(ctx context.Context, sub string, limit int) ([]domain.Post, error) {
	if err := ac.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	posts, _, err := ac.client.Subreddit.HotPosts(ctx, sub, &reddit.ListOptions{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("authenticated api error: %w", err)
	}

	result := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		post := domain.Post{
			ID:           p.ID,
			Title:        p.Title,
			Subreddit:    p.SubredditNamePrefixed,
			Author:       p.Author,
			URL:          p.URL,
			Score:        p.Score,
			CommentCount: p.NumberOfComments,
		}
		if p.Created != nil {
			post.CreatedUTC = float64(p.Created.Time.Unix())
		}
		result = append(result, post)
	}
	return result, nil
}
