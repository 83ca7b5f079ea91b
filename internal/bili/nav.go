package bili

import "context"

// NavData is the navigation endpoint payload. Only the signing key image
// URLs are consumed.
type NavData struct {
	WbiImg WbiImg `json:"wbi_img"`
}

// WbiImg carries the two key-fragment URLs; the fragment is the filename
// without extension of each.
type WbiImg struct {
	ImgURL string `json:"img_url"`
	SubURL string `json:"sub_url"`
}

// Nav fetches the navigation payload. Works without a credential, though
// logged-in sessions receive fuller data.
func (c *Client) Nav(ctx context.Context, cred *Credential) (NavData, error) {
	return get[NavData](ctx, c, "/x/web-interface/nav", nil, cred)
}
