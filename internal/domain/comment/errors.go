package comment

import "errors"

var ErrPhotoNotFound = errors.New("photo not found")
