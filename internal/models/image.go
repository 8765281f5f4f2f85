package models

import "time"

// Image is an uploaded-image record in the image catalog.
type Image struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	PublicID   string    `json:"publicId"`
	UploadedBy string    `json:"uploadedBy"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// OwnedBy reports whether userID is the uploader of the image.
func (i *Image) OwnedBy(userID string) bool {
	return userID != "" && i.UploadedBy == userID
}

// StoredObject is what the media store hands back for an upload: a public
// location and the opaque handle needed to delete the object later.
type StoredObject struct {
	URL      string
	PublicID string
}
