package cloudinary

import (
	"context"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/learnora/learnora-server/internal/domain/auth/model"
)

// MediaStore uploads avatars to cloudinary and removes replaced assets.
type MediaStore struct {
	cld *cloudinary.Cloudinary
}

func New(cloudinaryURL string) (*MediaStore, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, err
	}
	return &MediaStore{cld: cld}, nil
}

func (m *MediaStore) UploadAvatar(ctx context.Context, data string) (model.Avatar, error) {
	res, err := m.cld.Upload.Upload(ctx, data, uploader.UploadParams{
		Folder:         "avatars",
		Transformation: "w_150",
	})
	if err != nil {
		return model.Avatar{}, err
	}
	return model.Avatar{
		PublicID: res.PublicID,
		URL:      res.SecureURL,
	}, nil
}

func (m *MediaStore) Destroy(ctx context.Context, publicID string) error {
	_, err := m.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	return err
}
