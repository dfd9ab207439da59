package titlesync

import (
	"context"

	"github.com/EVE-University/unistudent/internal/app/system/esi"
	"golang.org/x/oauth2"
)

//go:generate mockgen -destination=mocks/mock_remote.go -package=mocks -source=remote.go RemoteClient

// RemoteClient fetches title data from ESI. etag is the validator of the
// last response the engine applied; a match returns esi.ErrNotModified.
type RemoteClient interface {
	CorporationTitles(ctx context.Context, corporationID int64, tok *oauth2.Token, etag string) ([]esi.Title, string, error)
	MemberTitles(ctx context.Context, corporationID int64, tok *oauth2.Token, etag string) ([]esi.MemberTitles, string, error)
}
