// Package mongostore реализует репозитории поверх MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ignatzorin/career-compass/internal/db"
	"github.com/ignatzorin/career-compass/internal/models"
	"github.com/ignatzorin/career-compass/internal/repository/common"
)

// Store набор коллекций одной базы.
type Store struct {
	db *mongo.Database
}

func NewStore(database *mongo.Database) *Store {
	return &Store{db: database}
}

func (s *Store) Opportunities() *OpportunityRepository {
	return &OpportunityRepository{c: s.db.Collection(db.CollectionOpportunities)}
}

func (s *Store) Bookmarks() *BookmarkRepository {
	return &BookmarkRepository{c: s.db.Collection(db.CollectionBookmarks)}
}

func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{c: s.db.Collection(db.CollectionSessions)}
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{
		users:    s.db.Collection(db.CollectionUsers),
		profiles: s.db.Collection(db.CollectionProfiles),
	}
}

func (s *Store) Deletions() *DeletionRepository {
	return &DeletionRepository{c: s.db.Collection(db.CollectionDeletions)}
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func findOne[T any](ctx context.Context, c *mongo.Collection, filter bson.M) (*T, error) {
	var out T
	err := c.FindOne(ctx, filter).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, c *mongo.Collection, filter bson.M, opts *options.FindOptions) ([]T, error) {
	cur, err := c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OpportunityFilter переводит условия выборки в фильтр MongoDB.
// Текст ищется как подстрока без учёта регистра в названии или локации.
func OpportunityFilter(f models.OpportunityFilter) bson.M {
	filter := bson.M{}
	if f.Search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"location": pattern},
		}
	}
	if f.Format != "" {
		filter["format"] = f.Format
	}
	if f.Duration != "" {
		filter["duration"] = f.Duration
	}
	if f.Department != "" {
		filter["department"] = f.Department
	}
	if f.HostID != nil {
		filter["host_id"] = *f.HostID
	}
	if f.IDs != nil {
		filter["_id"] = bson.M{"$in": f.IDs}
	}
	return filter
}

// OpportunityRepository коллекция opportunities.
type OpportunityRepository struct {
	c *mongo.Collection
}

func (r *OpportunityRepository) List(ctx context.Context, filter models.OpportunityFilter) ([]models.Opportunity, error) {
	out, err := findAll[models.Opportunity](ctx, r.c, OpportunityFilter(filter), newestFirst)
	if err != nil {
		return nil, fmt.Errorf("mongo opportunities: list %w", err)
	}
	return out, nil
}

func (r *OpportunityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	return findOne[models.Opportunity](ctx, r.c, bson.M{"_id": id})
}

func (r *OpportunityRepository) Create(ctx context.Context, opp *models.Opportunity) error {
	if opp.ID == uuid.Nil {
		opp.ID = uuid.New()
	}
	opp.CreatedAt = now()
	opp.UpdatedAt = opp.CreatedAt
	if _, err := r.c.InsertOne(ctx, opp); err != nil {
		return fmt.Errorf("mongo opportunities: insert %w", err)
	}
	return nil
}

// BulkCreate вставляет возможности одним InsertMany.
func (r *OpportunityRepository) BulkCreate(ctx context.Context, opps []models.Opportunity) (int, error) {
	if len(opps) == 0 {
		return 0, nil
	}
	ts := now()
	docs := make([]interface{}, len(opps))
	for i := range opps {
		opp := opps[i]
		if opp.ID == uuid.Nil {
			opp.ID = uuid.New()
		}
		opp.CreatedAt = ts
		opp.UpdatedAt = ts
		docs[i] = opp
	}
	res, err := r.c.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("mongo opportunities: insert many %w", err)
	}
	return len(res.InsertedIDs), nil
}

// Update перезаписывает изменяемые поля, если возможность принадлежит hostID.
func (r *OpportunityRepository) Update(ctx context.Context, opp *models.Opportunity, hostID uuid.UUID) error {
	opp.UpdatedAt = now()
	set := bson.M{
		"title":        opp.Title,
		"description":  opp.Description,
		"format":       opp.Format,
		"duration":     opp.Duration,
		"location":     opp.Location,
		"department":   opp.Department,
		"requirements": opp.Requirements,
		"updated_at":   opp.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if opp.ScheduledAt != nil {
		set["scheduled_at"] = *opp.ScheduledAt
	} else {
		update["$unset"] = bson.M{"scheduled_at": ""}
	}

	res, err := r.c.UpdateOne(ctx, bson.M{"_id": opp.ID, "host_id": hostID}, update)
	if err != nil {
		return fmt.Errorf("mongo opportunities: update %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *OpportunityRepository) DeleteOwned(ctx context.Context, id, hostID uuid.UUID) error {
	if _, err := r.c.DeleteOne(ctx, bson.M{"_id": id, "host_id": hostID}); err != nil {
		return fmt.Errorf("mongo opportunities: delete %w", err)
	}
	return nil
}

// BookmarkRepository коллекция bookmarks.
type BookmarkRepository struct {
	c *mongo.Collection
}

func (r *BookmarkRepository) Create(ctx context.Context, b *models.Bookmark) error {
	b.ID = uuid.New()
	b.CreatedAt = now()
	if _, err := r.c.InsertOne(ctx, b); err != nil {
		return fmt.Errorf("mongo bookmarks: insert %w", err)
	}
	return nil
}

func (r *BookmarkRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := r.c.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID}); err != nil {
		return fmt.Errorf("mongo bookmarks: delete %w", err)
	}
	return nil
}

func (r *BookmarkRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Bookmark, error) {
	out, err := findAll[models.Bookmark](ctx, r.c, bson.M{"user_id": userID}, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("mongo bookmarks: list %w", err)
	}
	return out, nil
}

func (r *BookmarkRepository) DeleteByOpportunity(ctx context.Context, opportunityID uuid.UUID) (int64, error) {
	res, err := r.c.DeleteMany(ctx, bson.M{"opportunity_id": opportunityID})
	if err != nil {
		return 0, fmt.Errorf("mongo bookmarks: delete by opportunity %w", err)
	}
	return res.DeletedCount, nil
}

// SessionRepository коллекция shadow_sessions.
type SessionRepository struct {
	c *mongo.Collection
}

func (r *SessionRepository) Create(ctx context.Context, s *models.ShadowSession) error {
	s.ID = uuid.New()
	s.CreatedAt = now()
	if _, err := r.c.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("mongo sessions: insert %w", err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := r.c.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID}); err != nil {
		return fmt.Errorf("mongo sessions: delete %w", err)
	}
	return nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ShadowSession, error) {
	out, err := findAll[models.ShadowSession](ctx, r.c, bson.M{"user_id": userID}, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("mongo sessions: list %w", err)
	}
	return out, nil
}

func (r *SessionRepository) ListByOpportunities(ctx context.Context, opportunityIDs []uuid.UUID) ([]models.ShadowSession, error) {
	out, err := findAll[models.ShadowSession](ctx, r.c, bson.M{"opportunity_id": bson.M{"$in": opportunityIDs}}, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("mongo sessions: list by opportunities %w", err)
	}
	return out, nil
}

func (r *SessionRepository) DeleteByOpportunity(ctx context.Context, opportunityID uuid.UUID) (int64, error) {
	res, err := r.c.DeleteMany(ctx, bson.M{"opportunity_id": opportunityID})
	if err != nil {
		return 0, fmt.Errorf("mongo sessions: delete by opportunity %w", err)
	}
	return res.DeletedCount, nil
}

// UserRepository коллекции users и profiles.
type UserRepository struct {
	users    *mongo.Collection
	profiles *mongo.Collection
}

// Create вставляет пользователя и профиль. Без транзакций: если профиль не записался,
// пользователь удаляется.
func (r *UserRepository) Create(ctx context.Context, user *models.User, profile *models.Profile) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = now()
	if _, err := r.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("mongo users: insert %w", err)
	}

	profile.UserID = user.ID
	profile.UpdatedAt = user.CreatedAt
	if _, err := r.profiles.InsertOne(ctx, profile); err != nil {
		if _, delErr := r.users.DeleteOne(context.WithoutCancel(ctx), bson.M{"_id": user.ID}); delErr != nil {
			err = errors.Join(err, delErr)
		}
		return fmt.Errorf("mongo profiles: insert %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, r.users, bson.M{"email": email})
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return findOne[models.User](ctx, r.users, bson.M{"_id": id})
}

func (r *UserRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return findOne[models.Profile](ctx, r.profiles, bson.M{"_id": userID})
}

// DeletionRepository коллекция opportunity_deletions.
type DeletionRepository struct {
	c *mongo.Collection
}

func (r *DeletionRepository) Save(ctx context.Context, d *models.OpportunityDeletion) error {
	d.UpdatedAt = now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = d.UpdatedAt
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.c.ReplaceOne(ctx, bson.M{"_id": d.OpportunityID}, d, opts); err != nil {
		return fmt.Errorf("mongo deletions: save %w", err)
	}
	return nil
}

func (r *DeletionRepository) Get(ctx context.Context, opportunityID uuid.UUID) (*models.OpportunityDeletion, error) {
	return findOne[models.OpportunityDeletion](ctx, r.c, bson.M{"_id": opportunityID})
}

func (r *DeletionRepository) ListPending(ctx context.Context) ([]models.OpportunityDeletion, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	out, err := findAll[models.OpportunityDeletion](ctx, r.c, bson.M{"done": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo deletions: list %w", err)
	}
	return out, nil
}
