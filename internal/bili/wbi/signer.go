package wbi

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"bilisum/internal/bili"
	"bilisum/internal/services"
)

// mixinKeyEncTab selects 32 characters from the concatenated key
// fragments. Fixed external contract; do not edit.
var mixinKeyEncTab = [64]int{
	46, 47, 18, 2, 53, 8, 23, 32, 15, 50, 10, 31, 58, 3, 45, 35,
	27, 43, 5, 49, 33, 9, 42, 19, 29, 28, 14, 39, 12, 38, 41, 13,
	37, 48, 7, 16, 24, 55, 40, 61, 26, 17, 0, 1, 60, 51, 30, 4,
	22, 25, 54, 21, 56, 59, 6, 63, 57, 62, 11, 36, 20, 34, 44, 52,
}

// filteredChars are stripped from parameter values (not keys) before
// hashing. Fixed external contract.
const filteredChars = "!'()*"

const defaultTTL = time.Hour

// NavSource supplies the key-fragment URLs. Implemented by *bili.Client.
type NavSource interface {
	Nav(ctx context.Context, cred *bili.Credential) (bili.NavData, error)
}

// Signer derives, caches, and applies the request signature.
type Signer struct {
	source NavSource
	ttl    time.Duration
	now    func() time.Time

	mu        sync.Mutex
	key       string
	fetchedAt time.Time
}

// Option customizes the signer.
type Option func(*Signer)

// WithTTL overrides the mixin key cache validity window.
func WithTTL(ttl time.Duration) Option {
	return func(s *Signer) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source (used in tests).
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSigner constructs a signer backed by the given nav source.
func NewSigner(source NavSource, opts ...Option) *Signer {
	s := &Signer{
		source: source,
		ttl:    defaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign returns a new parameter map augmented with the wts timestamp and
// the w_rid signature. The input map is not mutated.
func (s *Signer) Sign(ctx context.Context, params map[string]string, cred *bili.Credential) (map[string]string, error) {
	key, err := s.mixinKey(ctx, cred)
	if err != nil {
		return nil, err
	}
	return signWithKey(params, key, s.now().Unix()), nil
}

// mixinKey returns the cached key or fetches fresh fragments. The lock
// is held across the fetch so concurrent cache misses trigger a single
// round trip.
func (s *Signer) mixinKey(ctx context.Context, cred *bili.Credential) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != "" && s.now().Sub(s.fetchedAt) < s.ttl {
		return s.key, nil
	}

	nav, err := s.source.Nav(ctx, cred)
	if err != nil {
		return "", services.Wrap(services.ErrSigning, "wbi", "fetch key fragments", "", err)
	}
	imgKey := extractKey(nav.WbiImg.ImgURL)
	subKey := extractKey(nav.WbiImg.SubURL)
	if imgKey == "" || subKey == "" {
		return "", services.Wrap(services.ErrSigning, "wbi", "fetch key fragments", "navigation payload missing key URLs", nil)
	}

	s.key = deriveMixinKey(imgKey + subKey)
	s.fetchedAt = s.now()
	return s.key, nil
}

// extractKey pulls the filename-without-extension out of a fragment URL.
func extractKey(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	base := path.Base(parsed.Path)
	return strings.TrimSuffix(base, path.Ext(base))
}

func deriveMixinKey(combined string) string {
	var b strings.Builder
	b.Grow(32)
	for _, idx := range mixinKeyEncTab[:32] {
		if idx < len(combined) {
			b.WriteByte(combined[idx])
		}
	}
	return b.String()
}

func signWithKey(params map[string]string, mixinKey string, unixTime int64) map[string]string {
	signed := make(map[string]string, len(params)+2)
	for key, value := range params {
		signed[key] = value
	}
	signed["wts"] = strconv.FormatInt(unixTime, 10)

	keys := make([]string, 0, len(signed))
	for key := range signed {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var query strings.Builder
	for i, key := range keys {
		if i > 0 {
			query.WriteByte('&')
		}
		query.WriteString(key)
		query.WriteByte('=')
		query.WriteString(filterValue(signed[key]))
	}

	sum := md5.Sum([]byte(query.String() + mixinKey))
	signed["w_rid"] = hex.EncodeToString(sum[:])
	return signed
}

func filterValue(value string) string {
	if !strings.ContainsAny(value, filteredChars) {
		return value
	}
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if strings.ContainsRune(filteredChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
