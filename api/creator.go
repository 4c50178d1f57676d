package api

import (
	"context"
	"fmt"
	"strconv"
)

// CreatorService groups the read operations on a creator's catalog.
type CreatorService struct {
	client *Client
}

// Posts returns the page of post summaries starting at offset.
func (s *CreatorService) Posts(ctx context.Context, creator Creator, offset int) (*PostsPage, error) {
	u := s.client.apiURL(creator.Service, "user", creator.ID, "posts-legacy")
	if offset > 0 {
		values := u.Query()
		values.Set("o", strconv.Itoa(offset))
		u.RawQuery = values.Encode()
	}

	var page PostsPage
	if err := s.client.getJSON(ctx, u.String(), &page); err != nil {
		return nil, fmt.Errorf("%w: couldn't list posts (creator=%s,offset=%d)", err, creator, offset)
	}
	if err := page.validate(); err != nil {
		return nil, err
	}
	return &page, nil
}

// Post returns the detail of a single post.
func (s *CreatorService) Post(ctx context.Context, creator Creator, postID string) (*PostDetail, error) {
	u := s.client.apiURL(creator.Service, "user", creator.ID, "post", postID)

	var detail PostDetail
	if err := s.client.getJSON(ctx, u.String(), &detail); err != nil {
		return nil, fmt.Errorf("%w: couldn't get post (creator=%s,post=%s)", err, creator, postID)
	}
	if err := detail.validate(); err != nil {
		return nil, fmt.Errorf("%w (creator=%s,post=%s)", err, creator, postID)
	}
	return &detail, nil
}

// Profile returns the creator's profile.
func (s *CreatorService) Profile(ctx context.Context, creator Creator) (*Profile, error) {
	u := s.client.apiURL(creator.Service, "user", creator.ID, "profile")

	var profile Profile
	if err := s.client.getJSON(ctx, u.String(), &profile); err != nil {
		return nil, fmt.Errorf("%w: couldn't get profile (creator=%s)", err, creator)
	}
	return &profile, nil
}
