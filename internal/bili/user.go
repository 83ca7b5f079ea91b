package bili

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	userVideosMaxPageSize = 50
	userVideosPageCap     = 20
)

// UserVideosPage is one page of a user's uploads.
type UserVideosPage struct {
	List *UserVideoList `json:"list"`
}

// UserVideoList wraps the upload entries.
type UserVideoList struct {
	Vlist []UserVideoItem `json:"vlist"`
}

// UserVideoItem is one upload in a user's video listing.
type UserVideoItem struct {
	BVID   string     `json:"bvid"`
	Title  string     `json:"title"`
	Pic    string     `json:"pic"`
	Length string     `json:"length"`
	Author string     `json:"author"`
	Mid    FlexibleID `json:"mid"`
}

// UserInfo is a user profile summary.
type UserInfo struct {
	Mid  FlexibleID `json:"mid"`
	Name string     `json:"name"`
	Face string     `json:"face"`
	Sign string     `json:"sign"`
}

type userCardData struct {
	Card UserInfo `json:"card"`
}

// FlexibleID decodes a numeric id that some endpoints serialize as a
// string.
type FlexibleID int64

// UnmarshalJSON accepts both numeric and string-encoded ids.
func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexibleID(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode id %s: %w", string(data), err)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("parse id %q: %w", s, err)
	}
	*f = FlexibleID(n)
	return nil
}

// UserVideos fetches one page of a user's uploads. The endpoint rejects
// unsigned requests, so the attached signer is mandatory.
func (c *Client) UserVideos(ctx context.Context, mid int64, page, pageSize int, cred *Credential) (UserVideosPage, error) {
	if c.signer == nil {
		return UserVideosPage{}, fmt.Errorf("user videos: no request signer attached")
	}
	if pageSize > userVideosMaxPageSize {
		pageSize = userVideosMaxPageSize
	}
	params := map[string]string{
		"mid": strconv.FormatInt(mid, 10),
		"ps":  strconv.Itoa(pageSize),
		"pn":  strconv.Itoa(page),
	}
	signed, err := c.signer.Sign(ctx, params, cred)
	if err != nil {
		return UserVideosPage{}, err
	}
	return get[UserVideosPage](ctx, c, "/x/space/wbi/arc/search", signed, cred)
}

// AllUserBVIDs collects up to count BV ids from a user's uploads,
// paginating until the listing is exhausted or the page cap is hit.
func (c *Client) AllUserBVIDs(ctx context.Context, mid int64, count int, cred *Credential) ([]string, error) {
	var bvids []string
	for page := 1; len(bvids) < count && page <= userVideosPageCap; page++ {
		pageSize := count - len(bvids)
		result, err := c.UserVideos(ctx, mid, page, pageSize, cred)
		if err != nil {
			return nil, err
		}
		if result.List == nil || len(result.List.Vlist) == 0 {
			break
		}
		for _, item := range result.List.Vlist {
			bvids = append(bvids, item.BVID)
			if len(bvids) >= count {
				break
			}
		}
	}
	return bvids, nil
}

// UserCard fetches a user's profile via the card endpoint, which needs no
// signature.
func (c *Client) UserCard(ctx context.Context, mid int64, cred *Credential) (UserInfo, error) {
	data, err := get[userCardData](ctx, c, "/x/web-interface/card", map[string]string{"mid": strconv.FormatInt(mid, 10)}, cred)
	if err != nil {
		return UserInfo{}, err
	}
	return data.Card, nil
}

// MyInfo fetches the logged-in account profile. Requires a credential.
func (c *Client) MyInfo(ctx context.Context, cred *Credential) (UserInfo, error) {
	return get[UserInfo](ctx, c, "/x/space/myinfo", nil, cred)
}
