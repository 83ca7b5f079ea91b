package bili

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

const favoritesPageCap = 10

// FavoriteFolder is one of a user's favorites collections.
type FavoriteFolder struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	MediaCount int    `json:"media_count"`
	Attr       int    `json:"attr"`
}

// IsDefault reports whether this is the account's default folder
// (attr == 0 in the platform's encoding).
func (f FavoriteFolder) IsDefault() bool {
	return f.Attr == 0
}

type favoriteFolderListData struct {
	List []FavoriteFolder `json:"list"`
}

// FavoriteVideo is one entry inside a favorites folder.
type FavoriteVideo struct {
	BVID  string `json:"bvid"`
	Title string `json:"title"`
	Cover string `json:"cover"`
}

type favoriteContentData struct {
	Medias  []FavoriteVideo `json:"medias"`
	HasMore bool            `json:"has_more"`
}

// FavoriteFolders lists all favorites folders created by a user.
func (c *Client) FavoriteFolders(ctx context.Context, mid int64, cred *Credential) ([]FavoriteFolder, error) {
	data, err := get[favoriteFolderListData](ctx, c, "/x/v3/fav/folder/created/list-all", map[string]string{"up_mid": strconv.FormatInt(mid, 10)}, cred)
	if err != nil {
		return nil, err
	}
	return data.List, nil
}

// FavoriteVideos fetches one page of a favorites folder.
func (c *Client) FavoriteVideos(ctx context.Context, mediaID int64, page, pageSize int, cred *Credential) ([]FavoriteVideo, bool, error) {
	params := map[string]string{
		"media_id": strconv.FormatInt(mediaID, 10),
		"pn":       strconv.Itoa(page),
		"ps":       strconv.Itoa(pageSize),
	}
	data, err := get[favoriteContentData](ctx, c, "/x/v3/fav/resource/list", params, cred)
	if err != nil {
		return nil, false, err
	}
	return data.Medias, data.HasMore, nil
}

// DefaultFavoriteBVIDs collects up to count BV ids from the logged-in
// account's default favorites folder.
func (c *Client) DefaultFavoriteBVIDs(ctx context.Context, count int, cred *Credential) ([]string, error) {
	self, err := c.MyInfo(ctx, cred)
	if err != nil {
		return nil, err
	}
	folders, err := c.FavoriteFolders(ctx, int64(self.Mid), cred)
	if err != nil {
		return nil, err
	}
	if len(folders) == 0 {
		return nil, nil
	}
	folder := folders[0]
	for _, f := range folders {
		if f.IsDefault() {
			folder = f
			break
		}
	}

	var bvids []string
	for page := 1; len(bvids) < count && page <= favoritesPageCap; page++ {
		videos, hasMore, err := c.FavoriteVideos(ctx, folder.ID, page, 20, cred)
		if err != nil {
			return nil, err
		}
		for _, v := range videos {
			bvids = append(bvids, v.BVID)
			if len(bvids) >= count {
				break
			}
		}
		if !hasMore {
			break
		}
	}
	return bvids, nil
}

// Unfavorite removes a video from a favorites folder. Requires the CSRF
// token from the credential.
func (c *Client) Unfavorite(ctx context.Context, bvid string, folderID int64, cred *Credential) error {
	if !cred.Valid() || cred.BiliJct == "" {
		return fmt.Errorf("unfavorite: credential with csrf token required")
	}
	info, err := c.VideoInfo(ctx, bvid, cred)
	if err != nil {
		return err
	}
	form := url.Values{}
	form.Set("resources", fmt.Sprintf("%d:2", info.AID))
	form.Set("media_id", strconv.FormatInt(folderID, 10))
	form.Set("csrf", cred.BiliJct)

	_, err = c.postForm(ctx, "/x/v3/fav/resource/batch-del", form, cred)
	if errors.Is(err, ErrEmptyPayload) {
		// The removal endpoint returns code 0 with no data.
		return nil
	}
	return err
}
