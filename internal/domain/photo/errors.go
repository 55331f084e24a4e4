package photo

import "errors"

var (
	ErrPhotoNotFound = errors.New("photo not found")
	ErrNotPhotoOwner = errors.New("you can only manage your own photos")
)
