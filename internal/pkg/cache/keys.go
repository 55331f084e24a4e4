package cache

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

// Key prefixes. Listing keys are only ever removed by prefix.
const (
	PhotoPrefix         = "photo:"
	PhotosPrefix        = "photos:"
	CreatorPhotosPrefix = "creator_photos:"
	LikesPrefix         = "likes:photo:"
	RatingsPrefix       = "ratings:photo:"
	UserPrefix          = "user:"
)

func PhotoKey(id uuid.UUID) string {
	return PhotoPrefix + id.String()
}

// PhotosPageKey addresses one page of the public listing for a query signature.
// search and location are escaped so a ':' in either cannot forge another key.
func PhotosPageKey(page, pageSize int, search, location string) string {
	return fmt.Sprintf("%spage:%d:size:%d:search:%s:location:%s",
		PhotosPrefix, page, pageSize, url.QueryEscape(search), url.QueryEscape(location))
}

func CreatorPhotosKey(creatorID uuid.UUID) string {
	return CreatorPhotosPrefix + creatorID.String()
}

func LikesKey(photoID uuid.UUID) string {
	return LikesPrefix + photoID.String()
}

func RatingsKey(photoID uuid.UUID) string {
	return RatingsPrefix + photoID.String()
}

func UserKey(userID uuid.UUID) string {
	return UserPrefix + userID.String()
}
