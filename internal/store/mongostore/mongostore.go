// Package mongostore keeps services, bookings, users and doctors in MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"doctors-portal-api/internal/apperr"
	"doctors-portal-api/internal/model"
)

const (
	collServices = "services"
	collBookings = "bookings"
	collUsers    = "users"
	collDoctors  = "doctors"
)

type Store struct {
	client   *mongo.Client
	services *mongo.Collection
	bookings *mongo.Collection
	users    *mongo.Collection
	doctors  *mongo.Collection
}

func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return New(client, dbName), nil
}

func New(client *mongo.Client, dbName string) *Store {
	db := client.Database(dbName)
	return &Store{
		client:   client,
		services: db.Collection(collServices),
		bookings: db.Collection(collBookings),
		users:    db.Collection(collUsers),
		doctors:  db.Collection(collDoctors),
	}
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return apperr.Unavailable(s.client.Ping(ctx, nil))
}

// EnsureIndexes creates the unique indexes the booking invariant relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	specs := map[*mongo.Collection][]mongo.IndexModel{
		s.bookings: {
			{
				Keys:    bson.D{{Key: "treatment", Value: 1}, {Key: "date", Value: 1}, {Key: "patientEmail", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("patient_day_unique"),
			},
			{Keys: bson.D{{Key: "date", Value: 1}}},
			{Keys: bson.D{{Key: "patientEmail", Value: 1}}},
		},
		s.users:    {{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
		s.services: {{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)}},
		s.doctors:  {{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
	}
	for coll, models := range specs {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", apperr.ErrConflict, err)
	default:
		return apperr.Unavailable(err)
	}
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) ([]T, error) {
	cur, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, classify(err)
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func newID() string { return uuid.New().String() }

// ----- services -----

func (s *Store) ListServices(ctx context.Context) ([]model.Service, error) {
	return findAll[model.Service](ctx, s.services, bson.M{})
}

func (s *Store) AddService(ctx context.Context, svc *model.Service) (model.WriteResult, error) {
	doc := *svc
	doc.ID = newID()
	if doc.Slots == nil {
		doc.Slots = []string{}
	}
	if _, err := s.services.InsertOne(ctx, doc); err != nil {
		return model.WriteResult{}, classify(err)
	}
	svc.ID = doc.ID
	return model.WriteResult{Acknowledged: true, InsertedID: doc.ID}, nil
}

func (s *Store) RemoveService(ctx context.Context, name string) (model.WriteResult, error) {
	res, err := s.services.DeleteOne(ctx, bson.M{"name": name})
	if err != nil {
		return model.WriteResult{}, classify(err)
	}
	return model.WriteResult{Acknowledged: true, Deleted: res.DeletedCount}, nil
}

// ----- bookings -----

func (s *Store) BookingsOn(ctx context.Context, date string) ([]model.Booking, error) {
	return findAll[model.Booking](ctx, s.bookings, bson.M{"date": date})
}

func (s *Store) BookingsFor(ctx context.Context, email string) ([]model.Booking, error) {
	return findAll[model.Booking](ctx, s.bookings, bson.M{"patientEmail": email})
}

func (s *Store) FindBooking(ctx context.Context, key model.BookingKey) (*model.Booking, error) {
	var b model.Booking
	err := s.bookings.FindOne(ctx, bson.M{
		"treatment":    key.Treatment,
		"date":         key.Date,
		"patientEmail": key.PatientEmail,
	}).Decode(&b)
	if err != nil {
		return nil, classify(err)
	}
	return &b, nil
}

func (s *Store) InsertBooking(ctx context.Context, b *model.Booking) error {
	doc := *b
	doc.ID = newID()
	// BSON datetimes hold milliseconds; the caller must see what a re-read returns
	doc.CreatedAt = doc.CreatedAt.Truncate(time.Millisecond)
	if _, err := s.bookings.InsertOne(ctx, doc); err != nil {
		return classify(err)
	}
	b.ID = doc.ID
	b.CreatedAt = doc.CreatedAt
	return nil
}

// ----- users -----

func (s *Store) UpsertUser(ctx context.Context, email string, profile model.Profile, role *model.Role) (model.WriteResult, error) {
	if profile == nil {
		profile = model.Profile{}
	}
	set := bson.M{"email": email, "profile": profile}
	update := bson.M{"$set": set}
	if role != nil {
		if *role == "" {
			update["$unset"] = bson.M{"role": ""}
		} else {
			set["role"] = *role
		}
	}
	res, err := s.users.UpdateOne(ctx, bson.M{"email": email}, update, options.Update().SetUpsert(true))
	if err != nil {
		return model.WriteResult{}, classify(err)
	}
	return model.WriteResult{
		Acknowledged: true,
		Matched:      res.MatchedCount,
		Modified:     res.ModifiedCount,
		Upserted:     res.UpsertedCount,
	}, nil
}

func (s *Store) SetRole(ctx context.Context, email string, role model.Role) (model.WriteResult, error) {
	res, err := s.users.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{"role": role}})
	if err != nil {
		return model.WriteResult{}, classify(err)
	}
	if res.MatchedCount == 0 {
		return model.WriteResult{}, apperr.ErrNotFound
	}
	return model.WriteResult{Acknowledged: true, Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	return findAll[model.User](ctx, s.users, bson.M{})
}

// ----- doctors -----

func (s *Store) ListDoctors(ctx context.Context) ([]model.Doctor, error) {
	return findAll[model.Doctor](ctx, s.doctors, bson.M{})
}

func (s *Store) AddDoctor(ctx context.Context, d *model.Doctor) (model.WriteResult, error) {
	doc := *d
	doc.ID = newID()
	if _, err := s.doctors.InsertOne(ctx, doc); err != nil {
		return model.WriteResult{}, classify(err)
	}
	d.ID = doc.ID
	return model.WriteResult{Acknowledged: true, InsertedID: doc.ID}, nil
}

func (s *Store) RemoveDoctor(ctx context.Context, email string) (model.WriteResult, error) {
	res, err := s.doctors.DeleteOne(ctx, bson.M{"email": email})
	if err != nil {
		return model.WriteResult{}, classify(err)
	}
	return model.WriteResult{Acknowledged: true, Deleted: res.DeletedCount}, nil
}
