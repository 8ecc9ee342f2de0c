package models

import (
	"context"
	"time"

	"github.com/moizuddin404/wsa-backend/database"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DEFAULT_VIDEO_PAGE_SIZE = 20

// Video is a safety-tutorial catalog entry. Views and likes are plain
// counters bumped with the store's atomic $inc; nothing guards against the
// same client counting twice.
type Video struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title        string             `json:"title" bson:"title" validate:"required"`
	Description  string             `json:"description" bson:"description" validate:"required"`
	VideoURL     string             `json:"video_url" bson:"video_url" validate:"required"`
	ThumbnailURL string             `json:"thumbnail_url" bson:"thumbnail_url" validate:"required"`
	Duration     int                `json:"duration" bson:"duration" validate:"required"`
	Category     string             `json:"category" bson:"category" validate:"required"`
	Difficulty   string             `json:"difficulty" bson:"difficulty" validate:"required"`
	Views        int                `json:"views" bson:"views"`
	Likes        int                `json:"likes" bson:"likes"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// VideoFilter narrows a catalog listing.
type VideoFilter struct {
	Category   string
	Difficulty string
	Skip       int64
	Limit      int64
}

type VideoRepo struct {
	videos database.Collection
}

func NewVideoRepo(videos database.Collection) *VideoRepo {
	return &VideoRepo{videos: videos}
}

func (repo *VideoRepo) List(ctx context.Context, filter VideoFilter) ([]Video, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Difficulty != "" {
		query["difficulty"] = filter.Difficulty
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DEFAULT_VIDEO_PAGE_SIZE
	}

	videos := []Video{}
	err := repo.videos.Find(ctx, query, &database.FindOptions{Skip: filter.Skip, Limit: limit}, &videos)
	if err != nil {
		return nil, errors.Wrap(err, "VideoRepo.List")
	}

	return videos, nil
}

func (repo *VideoRepo) Find(ctx context.Context, id string) (*Video, error) {
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	video := Video{}
	err = repo.videos.FindOne(ctx, bson.M{"_id": objectID}, &video)
	if errors.Is(err, database.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "VideoRepo.Find")
	}

	return &video, nil
}

func (repo *VideoRepo) Create(ctx context.Context, video *Video) (*Video, error) {
	now := utcNow()
	video.Views = 0
	video.Likes = 0
	video.CreatedAt = now
	video.UpdatedAt = now

	id, err := repo.videos.InsertOne(ctx, video)
	if err != nil {
		return nil, errors.Wrap(err, "VideoRepo.Create")
	}

	video.ID = id
	return video, nil
}

// Update applies the supplied fields. Unlike contacts, an empty payload is
// not an error here; the document is simply re-read.
func (repo *VideoRepo) Update(ctx context.Context, id string, fields map[string]interface{}) (*Video, error) {
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	if len(fields) > 0 {
		update := bson.M{}
		for field, value := range fields {
			update[field] = value
		}
		update["updated_at"] = utcNow()

		_, err = repo.videos.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": update})
		if err != nil {
			return nil, errors.Wrap(err, "VideoRepo.Update")
		}
	}

	return repo.Find(ctx, id)
}

func (repo *VideoRepo) IncrementViews(ctx context.Context, id string) error {
	return repo.incrementField(ctx, id, "views")
}

func (repo *VideoRepo) IncrementLikes(ctx context.Context, id string) error {
	return repo.incrementField(ctx, id, "likes")
}

func (repo *VideoRepo) Delete(ctx context.Context, id string) error {
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return err
	}

	deleted, err := repo.videos.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return errors.Wrap(err, "VideoRepo.Delete")
	}
	if deleted == 0 {
		return ErrNotFound
	}

	return nil
}

func (repo *VideoRepo) incrementField(ctx context.Context, id, field string) error {
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return err
	}

	result, err := repo.videos.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$inc": bson.M{field: 1}})
	if err != nil {
		return errors.Wrap(err, "VideoRepo.incrementField")
	}
	if result.ModifiedCount == 0 {
		return ErrNotFound
	}

	return nil
}
