package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"petmarket/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProductFilter narrows and orders a catalog listing
type ProductFilter struct {
	Category string
	Status   *bool
	Sort     string // "asc" or "desc" by price, empty for insertion order
	Page     int
	Limit    int
}

// ProductPage is one page of a catalog listing
type ProductPage struct {
	Docs       []models.Product
	Total      int64
	TotalPages int
	Page       int
	Limit      int
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
}

// CreateProduct inserts a product. The code must be unique.
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	res, err := s.products.InsertOne(ctx, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, models.ErrDuplicateCode
		}
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}

	p.ID = res.InsertedID.(primitive.ObjectID)
	return p, nil
}

// GetProductByID retrieves a product by its identifier
func (s *Store) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var p models.Product
	err = s.products.FindOne(ctx, bson.M{"_id": oid}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProductByCode retrieves a product by its human-readable code
func (s *Store) GetProductByCode(ctx context.Context, code string) (*models.Product, error) {
	var p models.Product
	err := s.products.FindOne(ctx, bson.M{"code": code}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts returns a filtered, sorted, paginated catalog page
func (s *Store) ListProducts(ctx context.Context, filter ProductFilter) (*ProductPage, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	total, err := s.products.CountDocuments(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	switch filter.Sort {
	case "asc":
		opts.SetSort(bson.D{{Key: "price", Value: 1}})
	case "desc":
		opts.SetSort(bson.D{{Key: "price", Value: -1}})
	}

	cursor, err := s.products.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	docs := []models.Product{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	if totalPages < 1 {
		totalPages = 1
	}

	return &ProductPage{
		Docs:       docs,
		Total:      total,
		TotalPages: totalPages,
		Page:       page,
		Limit:      limit,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		PrevPage:   page - 1,
		NextPage:   page + 1,
	}, nil
}

// UpdateProduct applies a partial update and returns the updated product
func (s *Store) UpdateProduct(ctx context.Context, id string, update map[string]interface{}) (*models.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	for k, v := range update {
		set[k] = v
	}

	var p models.Product
	err = s.products.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrProductNotFound
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, models.ErrDuplicateCode
		}
		return nil, err
	}
	return &p, nil
}

// DeleteProduct removes a product from the catalog
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := s.products.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrProductNotFound
	}
	return nil
}

// DecrementStock decreases stock by amount in a single conditional update:
// the document matches only while stock >= amount, so concurrent purchases
// cannot drive the counter negative. Returns the remaining stock, or
// ErrInsufficientStock without mutating anything.
func (s *Store) DecrementStock(ctx context.Context, id string, amount int) (int, error) {
	oid, err := parseID(id)
	if err != nil {
		return 0, err
	}

	var p models.Product
	err = s.products.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "stock": bson.M{"$gte": amount}},
		bson.M{
			"$inc": bson.M{"stock": -amount},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either the product is missing or the guard failed; look once to
		// tell the two apart.
		count, lookErr := s.products.CountDocuments(ctx, bson.M{"_id": oid})
		if lookErr != nil {
			return 0, lookErr
		}
		if count == 0 {
			return 0, models.ErrProductNotFound
		}
		return 0, models.ErrInsufficientStock
	}
	if err != nil {
		return 0, fmt.Errorf("failed to decrement stock: %w", err)
	}
	return p.Stock, nil
}

// IncrementStock increases stock by amount (stock adjustment or purchase
// compensation)
func (s *Store) IncrementStock(ctx context.Context, id string, amount int) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := s.products.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$inc": bson.M{"stock": amount},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to increment stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrProductNotFound
	}
	return nil
}
