package bili

import (
	"context"
	"fmt"
	"strconv"
)

// playDescriptor is the dash-format playback descriptor. Only the audio
// streams are of interest to the transcription fallback.
type playDescriptor struct {
	Dash *dashInfo `json:"dash"`
}

type dashInfo struct {
	Audio []dashStream `json:"audio"`
}

type dashStream struct {
	BaseURL    string `json:"baseUrl"`
	BaseURLAlt string `json:"base_url"`
}

func (s dashStream) url() string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	return s.BaseURLAlt
}

// AudioStreamURL resolves a direct audio stream URL for a video page by
// requesting a dash-format stream descriptor.
func (c *Client) AudioStreamURL(ctx context.Context, bvid string, cid int64, cred *Credential) (string, error) {
	params := map[string]string{
		"bvid":  bvid,
		"cid":   strconv.FormatInt(cid, 10),
		"fnval": "16", // dash format
	}
	descriptor, err := get[playDescriptor](ctx, c, "/x/player/playurl", params, cred)
	if err != nil {
		return "", err
	}
	if descriptor.Dash == nil || len(descriptor.Dash.Audio) == 0 {
		return "", fmt.Errorf("no audio stream in playback descriptor for %s", bvid)
	}
	streamURL := descriptor.Dash.Audio[0].url()
	if streamURL == "" {
		return "", fmt.Errorf("audio stream url empty for %s", bvid)
	}
	return absoluteURL(streamURL), nil
}
