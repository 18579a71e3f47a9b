package domain

import (
	"context"
	"time"
)

// Target is a community to pull images from
type Target struct {
	Subreddit string
	MinScore  int // 0 means use the run threshold
}

// Post is what a collector returns for a single listing entry
type Post struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Subreddit    string  `json:"subreddit"`
	Author       string  `json:"author"`
	URL          string  `json:"url"`
	Score        int     `json:"score"`
	CommentCount int     `json:"comment_count"`
	CreatedUTC   float64 `json:"created_utc"`
}

// Created returns the creation time of the post in UTC.
func (p Post) Created() time.Time {
	sec := int64(p.CreatedUTC)
	nsec := int64((p.CreatedUTC - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}

// Collector defines the interface for data fetching
type Collector interface {
	FetchHotPosts(ctx context.Context, subreddit string, limit int) ([]Post, error)
}

// PostedImages is an insertion-ordered set of image URLs delivered to the channel.
type PostedImages struct {
	urls []string
	seen map[string]struct{}
}

func NewPostedImages(urls ...string) *PostedImages {
	p := &PostedImages{
		urls: make([]string, 0, len(urls)),
		seen: make(map[string]struct{}, len(urls)),
	}
	for _, u := range urls {
		p.Add(u)
	}
	return p
}

// Add records url and reports whether it was not already present.
func (p *PostedImages) Add(url string) bool {
	if _, ok := p.seen[url]; ok {
		return false
	}
	p.seen[url] = struct{}{}
	p.urls = append(p.urls, url)
	return true
}

func (p *PostedImages) Contains(url string) bool {
	_, ok := p.seen[url]
	return ok
}

func (p *PostedImages) Len() int {
	return len(p.urls)
}

// URLs returns a copy of the recorded URLs in insertion order. Never nil.
func (p *PostedImages) URLs() []string {
	out := make([]string, len(p.urls))
	copy(out, p.urls)
	return out
}
