package rating

import "errors"

var ErrPhotoNotFound = errors.New("photo not found")
