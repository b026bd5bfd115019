package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Lixing-Zhang/trattoria/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	collectionProducts = "products"
	collectionDishes   = "dishes"
	collectionOrders   = "orders"
)

// MongoConfig holds the connection settings for MongoStore.
type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// MongoStore is a Store backed by MongoDB. Units of work run as
// multi-document transactions, which requires a replica set.
type MongoStore struct {
	client   *mongo.Client
	products *mongo.Collection
	dishes   *mongo.Collection
	orders   *mongo.Collection
}

// NewMongoStore connects, pings the primary and ensures indexes exist.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(cfg.Database)
	s := &MongoStore{
		client:   client,
		products: db.Collection(collectionProducts),
		dishes:   db.Collection(collectionDishes),
		orders:   db.Collection(collectionOrders),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	if _, err := s.products.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: unique,
	}); err != nil {
		return fmt.Errorf("failed to index products: %w", err)
	}

	if _, err := s.dishes.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "ingredients.name", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to index dishes: %w", err)
	}

	if _, err := s.orders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	}); err != nil {
		return fmt.Errorf("failed to index orders: %w", err)
	}
	return nil
}

// Ping checks that the primary is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// WithTransaction implements Store. The driver retries fn on transient
// transaction errors; if it still cannot commit the result is
// ErrTransactionAborted.
func (s *MongoStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(context.Background())

	unit := &mongoUnit{store: s}
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, unit)
	})
	if err == nil {
		return nil
	}
	if isTransient(err) {
		return fmt.Errorf("%w: %v", ErrTransactionAborted, err)
	}
	return err
}

// View implements Store. Reads run outside any session transaction.
func (s *MongoStore) View(ctx context.Context, fn func(ctx context.Context, r Reader) error) error {
	return fn(ctx, &mongoUnit{store: s})
}

// Close implements Store.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func isTransient(err error) bool {
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.HasErrorLabel("TransientTransactionError") ||
			serverErr.HasErrorLabel("UnknownTransactionCommitResult")
	}
	return false
}

// mongoUnit runs every call with the session context handed to fn, so all
// reads and writes belong to the surrounding transaction.
type mongoUnit struct {
	store *MongoStore
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) (T, error) {
	var doc T
	err := coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, ErrNotFound
	}
	if err != nil {
		return doc, fmt.Errorf("failed to find in %s: %w", coll.Name(), err)
	}
	return doc, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
	}
	return out, nil
}

func insert(ctx context.Context, coll *mongo.Collection, doc interface{}) error {
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert into %s: %w", coll.Name(), err)
	}
	return nil
}

func deleteOne(ctx context.Context, coll *mongo.Collection, filter bson.M) error {
	res, err := coll.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

var byName = options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

// Products

func (u *mongoUnit) FindProduct(ctx context.Context, name string) (models.Product, error) {
	return findOne[models.Product](ctx, u.store.products, bson.M{"name": name})
}

func (u *mongoUnit) FindProductsByNames(ctx context.Context, names []string) ([]models.Product, error) {
	return findAll[models.Product](ctx, u.store.products, bson.M{"name": bson.M{"$in": names}}, byName)
}

func (u *mongoUnit) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := bson.M{}
	if filter.InStock != nil {
		if *filter.InStock {
			query["stock"] = bson.M{"$gt": 0}
		} else {
			query["stock"] = 0
		}
	}
	if filter.Category != "" {
		query["categories"] = filter.Category
	}
	return findAll[models.Product](ctx, u.store.products, query, byName)
}

func (u *mongoUnit) OutOfStockProductNames(ctx context.Context) ([]string, error) {
	products, err := findAll[models.Product](ctx, u.store.products, bson.M{"stock": 0},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}).SetProjection(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Name
	}
	return names, nil
}

func (u *mongoUnit) InsertProduct(ctx context.Context, p models.Product) error {
	return insert(ctx, u.store.products, p)
}

func (u *mongoUnit) ReplaceProduct(ctx context.Context, p models.Product) (models.Product, error) {
	var prev models.Product
	err := u.store.products.FindOneAndReplace(ctx, bson.M{"name": p.Name}, p,
		options.FindOneAndReplace().SetReturnDocument(options.Before)).Decode(&prev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, ErrNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("failed to replace product: %w", err)
	}
	return prev, nil
}

// AdjustProductStock guards the result range in the filter, so the check
// and the write are one server-side operation.
func (u *mongoUnit) AdjustProductStock(ctx context.Context, name string, delta int) (StockChange, error) {
	if delta == math.MinInt {
		return StockChange{}, ErrInsufficientStock
	}

	now := time.Now().UTC()
	guard := bson.M{"$gte": -delta}
	if delta > 0 {
		guard = bson.M{"$lte": math.MaxInt - delta}
	}
	filter := bson.M{"name": name, "stock": guard}
	update := bson.M{
		"$inc": bson.M{"stock": delta},
		"$set": bson.M{"updated_at": now},
	}

	var prev models.Product
	err := u.store.products.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.Before)).Decode(&prev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, findErr := u.FindProduct(ctx, name); findErr != nil {
			return StockChange{}, findErr
		}
		if delta > 0 {
			return StockChange{}, ErrStockOverflow
		}
		return StockChange{}, ErrInsufficientStock
	}
	if err != nil {
		return StockChange{}, fmt.Errorf("failed to update stock: %w", err)
	}

	next := prev.Clone()
	next.Stock = prev.Stock + delta
	next.UpdatedAt = now
	return StockChange{Product: next, Previous: prev.Stock}, nil
}

func (u *mongoUnit) DeleteProduct(ctx context.Context, name string) error {
	return deleteOne(ctx, u.store.products, bson.M{"name": name})
}

// Dishes

func (u *mongoUnit) FindDish(ctx context.Context, name string) (models.Dish, error) {
	return findOne[models.Dish](ctx, u.store.dishes, bson.M{"name": name})
}

func (u *mongoUnit) FindDishesByNames(ctx context.Context, names []string) ([]models.Dish, error) {
	return findAll[models.Dish](ctx, u.store.dishes, bson.M{"name": bson.M{"$in": names}}, byName)
}

func (u *mongoUnit) ListDishes(ctx context.Context, filter DishFilter) ([]models.Dish, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Available != nil {
		query["available"] = *filter.Available
	}
	return findAll[models.Dish](ctx, u.store.dishes, query, byName)
}

func (u *mongoUnit) CountDishesByIngredient(ctx context.Context, ingredient string) (int, error) {
	n, err := u.store.dishes.CountDocuments(ctx, bson.M{"ingredients.name": ingredient})
	if err != nil {
		return 0, fmt.Errorf("failed to count dishes: %w", err)
	}
	return int(n), nil
}

func (u *mongoUnit) InsertDish(ctx context.Context, d models.Dish) error {
	return insert(ctx, u.store.dishes, d)
}

func (u *mongoUnit) ReplaceDish(ctx context.Context, d models.Dish) error {
	res, err := u.store.dishes.ReplaceOne(ctx, bson.M{"name": d.Name}, d)
	if err != nil {
		return fmt.Errorf("failed to replace dish: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (u *mongoUnit) DeleteDish(ctx context.Context, name string) error {
	return deleteOne(ctx, u.store.dishes, bson.M{"name": name})
}

func (u *mongoUnit) SetDishAvailability(ctx context.Context, ingredient string, available bool, blockedBy []string) (int, error) {
	filter := bson.M{
		"ingredients.name": ingredient,
		"available":        bson.M{"$ne": available},
	}
	if len(blockedBy) > 0 {
		delete(filter, "ingredients.name")
		filter["$and"] = bson.A{
			bson.M{"ingredients.name": ingredient},
			bson.M{"ingredients.name": bson.M{"$nin": blockedBy}},
		}
	}
	update := bson.M{"$set": bson.M{"available": available, "updated_at": time.Now().UTC()}}

	res, err := u.store.dishes.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to update dish availability: %w", err)
	}
	return int(res.ModifiedCount), nil
}

// Orders

func (u *mongoUnit) FindOrder(ctx context.Context, id string) (models.Order, error) {
	return findOne[models.Order](ctx, u.store.orders, bson.M{"_id": id})
}

func (u *mongoUnit) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	newestFirst := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	return findAll[models.Order](ctx, u.store.orders, query, newestFirst)
}

func (u *mongoUnit) InsertOrder(ctx context.Context, o models.Order) error {
	return insert(ctx, u.store.orders, o)
}

func (u *mongoUnit) ReplaceOrderIfStatus(ctx context.Context, o models.Order, expected models.OrderStatus) error {
	res, err := u.store.orders.ReplaceOne(ctx, bson.M{"_id": o.ID, "status": expected}, o)
	if err != nil {
		return fmt.Errorf("failed to replace order: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	if _, err := u.FindOrder(ctx, o.ID); err != nil {
		return err
	}
	return ErrConflict
}
