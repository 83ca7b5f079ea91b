package bili

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
)

// VideoInfo is the resolved metadata for a single video.
type VideoInfo struct {
	BVID     string `json:"bvid"`
	AID      int64  `json:"aid"`
	Title    string `json:"title"`
	Duration int    `json:"duration"`
	Pic      string `json:"pic"`
	Owner    Owner  `json:"owner"`
	Desc     string `json:"desc"`
}

// Owner identifies the uploading account.
type Owner struct {
	Mid  int64  `json:"mid"`
	Name string `json:"name"`
	Face string `json:"face"`
}

// CoverURL returns the cover image URL with the protocol resolved.
func (v VideoInfo) CoverURL() string {
	return absoluteURL(v.Pic)
}

// WatchURL returns the public page URL for the video.
func (v VideoInfo) WatchURL() string {
	return "https://www.bilibili.com/video/" + v.BVID
}

// VideoPage is one part of a multi-part video.
type VideoPage struct {
	CID      int64  `json:"cid"`
	Page     int    `json:"page"`
	Part     string `json:"part"`
	Duration int    `json:"duration"`
}

// PlayerInfo carries the subtitle descriptor for a video page.
type PlayerInfo struct {
	Subtitle *SubtitleInfo `json:"subtitle"`
}

// SubtitleInfo lists the available subtitle tracks.
type SubtitleInfo struct {
	Subtitles []SubtitleTrack `json:"subtitles"`
}

// SubtitleTrack describes one subtitle language track. SubtitleURL may be
// empty while the platform is still generating AI captions.
type SubtitleTrack struct {
	Lan         string `json:"lan"`
	LanDoc      string `json:"lan_doc"`
	SubtitleURL string `json:"subtitle_url"`
}

// DownloadURL returns the resolved subtitle URL, or empty when the track
// is not ready yet.
func (t SubtitleTrack) DownloadURL() string {
	if t.SubtitleURL == "" {
		return ""
	}
	return absoluteURL(t.SubtitleURL)
}

// VideoInfo fetches video metadata by BV id.
func (c *Client) VideoInfo(ctx context.Context, bvid string, cred *Credential) (VideoInfo, error) {
	return get[VideoInfo](ctx, c, "/x/web-interface/view", map[string]string{"bvid": bvid}, cred)
}

// Pages fetches the part list for a video; the first part's cid keys all
// player-level lookups.
func (c *Client) Pages(ctx context.Context, bvid string, cred *Credential) ([]VideoPage, error) {
	return get[[]VideoPage](ctx, c, "/x/player/pagelist", map[string]string{"bvid": bvid}, cred)
}

// PlayerInfo fetches the player descriptor containing subtitle tracks.
func (c *Client) PlayerInfo(ctx context.Context, bvid string, cid int64, cred *Credential) (PlayerInfo, error) {
	params := map[string]string{
		"bvid": bvid,
		"cid":  strconv.FormatInt(cid, 10),
	}
	return get[PlayerInfo](ctx, c, "/x/player/v2", params, cred)
}

var bvidPattern = regexp.MustCompile(`BV[a-zA-Z0-9]+`)

// ExtractBVID pulls a BV identifier out of a URL or free-form text.
func ExtractBVID(text string) (string, error) {
	match := bvidPattern.FindString(text)
	if match == "" {
		return "", fmt.Errorf("no BV id found in %q", text)
	}
	return match, nil
}
