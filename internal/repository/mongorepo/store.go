// Package mongorepo implements repository.Storage on MongoDB collections
// users, tasks and complaints.
package mongorepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"task_tracker/internal/domain"
	"task_tracker/internal/repository"
)

const opTimeout = 5 * time.Second

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

type Store struct {
	users      *mongo.Collection
	tasks      *mongo.Collection
	complaints *mongo.Collection
	clock      repository.Clock
}

var _ repository.Storage = (*Store)(nil)

type Option func(*Store)

func WithClock(c repository.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// Connect dials the server and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping: %w", err)
	}
	return client, nil
}

// New returns a Store over db after creating its indexes.
func New(ctx context.Context, db *mongo.Database, opts ...Option) (*Store, error) {
	s := &Store{
		users:      db.Collection("users"),
		tasks:      db.Collection("tasks"),
		complaints: db.Collection("complaints"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		s.tasks: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "assignedTo", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		s.complaints: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "employeeId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// now truncates to the millisecond precision BSON dates carry.
func (s *Store) now() time.Time {
	return s.clock.Now().Truncate(time.Millisecond)
}

// objectID parses a hex id; ok is false for ids this backend never issues.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	var doc T
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func findMany[T any](ctx context.Context, coll *mongo.Collection, filter any) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	cur, err := coll.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	docs := []T{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}
	doc, err := findOne[userDoc](ctx, s.users, bson.M{"_id": oid})
	if err != nil || doc == nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	doc, err := findOne[userDoc](ctx, s.users, bson.M{"email": repository.NormalizeEmail(email)})
	if err != nil || doc == nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (s *Store) CreateUser(ctx context.Context, nu domain.NewUser) (*domain.User, error) {
	doc := &userDoc{
		ID:        primitive.NewObjectID(),
		Name:      nu.Name,
		Email:     repository.NormalizeEmail(nu.Email),
		Password:  nu.Password,
		Role:      string(nu.Role),
		CreatedAt: s.now(),
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, repository.ErrDuplicateEmail
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (s *Store) GetEmployees(ctx context.Context) ([]domain.User, error) {
	docs, err := findMany[userDoc](ctx, s.users, bson.M{"role": string(domain.RoleEmployee)})
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, len(docs))
	for i := range docs {
		users[i] = *docs[i].toDomain()
	}
	return users, nil
}

func (s *Store) GetTasks(ctx context.Context) ([]domain.Task, error) {
	return s.listTasks(ctx, bson.M{})
}

func (s *Store) GetTasksByAssignee(ctx context.Context, assigneeID string) ([]domain.Task, error) {
	return s.listTasks(ctx, bson.M{"assignedTo": assigneeID})
}

func (s *Store) listTasks(ctx context.Context, filter bson.M) ([]domain.Task, error) {
	docs, err := findMany[taskDoc](ctx, s.tasks, filter)
	if err != nil {
		return nil, err
	}
	tasks := make([]domain.Task, len(docs))
	for i := range docs {
		tasks[i] = *docs[i].toDomain()
	}
	return tasks, nil
}

func (s *Store) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}
	doc, err := findOne[taskDoc](ctx, s.tasks, bson.M{"_id": oid})
	if err != nil || doc == nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (s *Store) CreateTask(ctx context.Context, nt domain.NewTask, createdBy string) (*domain.Task, error) {
	doc := &taskDoc{
		ID:          primitive.NewObjectID(),
		Title:       nt.Title,
		Description: nt.Description,
		Link:        nt.Link,
		Status:      string(repository.TaskStatusOrDefault(nt.Status)),
		AssignedTo:  nt.AssignedTo,
		CreatedBy:   createdBy,
		CreatedAt:   s.now(),
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if _, err := s.tasks.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (s *Store) UpdateTask(ctx context.Context, id string, upd domain.TaskUpdate) (*domain.Task, error) {
	if upd.Empty() {
		return s.GetTask(ctx, id)
	}
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}
	set := bson.M{}
	if upd.Status != nil {
		set["status"] = string(*upd.Status)
	}
	if upd.Unassigns() {
		set["assignedTo"] = nil
	} else if upd.AssignedTo != nil {
		set["assignedTo"] = *upd.AssignedTo
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	var doc taskDoc
	err := s.tasks.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err := s.tasks.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

func (s *Store) GetComplaints(ctx context.Context) ([]domain.Complaint, error) {
	return s.listComplaints(ctx, bson.M{})
}

func (s *Store) GetComplaintsByEmployee(ctx context.Context, employeeID string) ([]domain.Complaint, error) {
	return s.listComplaints(ctx, bson.M{"employeeId": employeeID})
}

func (s *Store) listComplaints(ctx context.Context, filter bson.M) ([]domain.Complaint, error) {
	docs, err := findMany[complaintDoc](ctx, s.complaints, filter)
	if err != nil {
		return nil, err
	}
	complaints := make([]domain.Complaint, len(docs))
	for i := range docs {
		complaints[i] = *docs[i].toDomain()
	}
	return complaints, nil
}

func (s *Store) CreateComplaint(ctx context.Context, nc domain.NewComplaint, employeeID string) (*domain.Complaint, error) {
	doc := &complaintDoc{
		ID:          primitive.NewObjectID(),
		Title:       nc.Title,
		Description: nc.Description,
		Status:      string(domain.ComplaintStatusOpen),
		EmployeeID:  employeeID,
		CreatedAt:   s.now(),
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if _, err := s.complaints.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (s *Store) UpdateComplaint(ctx context.Context, id string, upd domain.ComplaintUpdate) (*domain.Complaint, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}
	if upd.Status == nil {
		doc, err := findOne[complaintDoc](ctx, s.complaints, bson.M{"_id": oid})
		if err != nil || doc == nil {
			return nil, err
		}
		return doc.toDomain(), nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	var doc complaintDoc
	err := s.complaints.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"status": string(*upd.Status)}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc.toDomain(), nil
}
