package relay

import (
	"context"
	"fmt"
	"time"

	jalaali "github.com/jalaali/go-jalaali"
)

// Presigned URLs are bounded by the store's signing limits.
const (
	minPresignExpiry = time.Second
	maxPresignExpiry = 7 * 24 * time.Hour
)

// Link is a consumer-facing URL for a stored object plus the human-readable
// expiry components included in the response message.
type Link struct {
	URL        string
	ExpireDate string // e.g. "2026/08/30", Jalali calendar when configured
	ExpireTime string // e.g. "17:45:03"
}

// LinkIssuer produces links for stored objects: either a static base-URL
// concatenation or a time-limited presigned URL whose expiry matches the
// object's remaining retention.
type LinkIssuer struct {
	store        ObjectStore
	baseURL      string
	usePresigned bool
	window       time.Duration
	loc          *time.Location
	jalali       bool
}

// NewLinkIssuer creates a link issuer.
func NewLinkIssuer(store ObjectStore, baseURL string, usePresigned bool, window time.Duration, loc *time.Location, jalali bool) *LinkIssuer {
	return &LinkIssuer{
		store:        store,
		baseURL:      baseURL,
		usePresigned: usePresigned,
		window:       window,
		loc:          loc,
		jalali:       jalali,
	}
}

// Issue builds the link for obj. A presigned link never outlives the object:
// its expiry is the object's remaining retention at issuance time, clamped
// to the store's signing bounds.
func (li *LinkIssuer) Issue(ctx context.Context, obj Object, now time.Time) (Link, error) {
	expireAt := obj.LastModified.Add(li.window)

	var url string
	if li.usePresigned {
		remaining := expireAt.Sub(now)
		if remaining < minPresignExpiry {
			remaining = minPresignExpiry
		}
		if remaining > maxPresignExpiry {
			remaining = maxPresignExpiry
		}
		signed, err := li.store.PresignedURL(ctx, obj.Key, remaining)
		if err != nil {
			return Link{}, fmt.Errorf("presign %q: %w", obj.Key, err)
		}
		url = signed
	} else {
		url = li.baseURL + "/" + EncodeKey(obj.Key)
	}

	date, clock := li.formatExpiry(expireAt)
	return Link{URL: url, ExpireDate: date, ExpireTime: clock}, nil
}

// formatExpiry renders the expiry instant in the configured timezone and
// calendar system.
func (li *LinkIssuer) formatExpiry(t time.Time) (date, clock string) {
	local := t.In(li.loc)
	clock = local.Format("15:04:05")

	if li.jalali {
		jy, jm, jd, err := jalaali.ToJalaali(local.Year(), local.Month(), local.Day())
		if err == nil {
			return fmt.Sprintf("%04d/%02d/%02d", jy, int(jm), jd), clock
		}
	}
	return local.Format("2006/01/02"), clock
}
