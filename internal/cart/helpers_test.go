package cart

import (
	"context"
	"testing"

	"github.com/angelmondragon/ecommerce-backend/pkg/db"
	"github.com/angelmondragon/ecommerce-backend/pkg/db/dbtest"
	"github.com/angelmondragon/ecommerce-backend/pkg/db/models"
	"github.com/angelmondragon/ecommerce-backend/pkg/enums"
	"github.com/angelmondragon/ecommerce-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type gormCatalog struct {
	conn *gorm.DB
}

func (c gormCatalog) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := c.conn.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (c gormCatalog) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	err := c.conn.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

type gormUsers struct {
	conn *gorm.DB
}

func (u gormUsers) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := u.conn.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

type fixture struct {
	client   *db.Client
	repo     *Repository
	svc      Service
	registry *prometheus.Registry
	user     *models.User
	category *models.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	return newFixtureWithRepo(t, client, repo, repo)
}

func newFixtureWithRepo(t *testing.T, client *db.Client, base *Repository, cartRepo CartRepository) *fixture {
	t.Helper()
	registry := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		Repo:     cartRepo,
		Tx:       client,
		Products: gormCatalog{conn: client.DB()},
		Users:    gormUsers{conn: client.DB()},
		Metrics:  metrics.NewCartMetrics(registry),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{
		client:   client,
		repo:     base,
		svc:      svc,
		registry: registry,
		user:     dbtest.MustCreateUser(t, client.DB(), enums.RoleClient),
		category: dbtest.MustCreateCategory(t, client.DB()),
	}
}

func (f *fixture) product(t *testing.T, name, price string) *models.Product {
	t.Helper()
	return dbtest.MustCreateProduct(t, f.client.DB(), f.category.ID, name, price)
}

func (f *fixture) countRows(t *testing.T, model any) int64 {
	t.Helper()
	var count int64
	if err := f.client.DB().Model(model).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return count
}

func (f *fixture) otherUser(t *testing.T) *models.User {
	t.Helper()
	return dbtest.MustCreateUser(t, f.client.DB(), enums.RoleClient)
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

// racingRepo reports the header as missing for the first misses lookups,
// which is what a request sees when another request creates the header
// between its read and its insert.
type racingRepo struct {
	CartRepository
	misses *int
}

func (r racingRepo) WithTx(tx *gorm.DB) CartRepository {
	return racingRepo{CartRepository: r.CartRepository.WithTx(tx), misses: r.misses}
}

func (r racingRepo) FindHeaderByUser(ctx context.Context, userID uuid.UUID) (*models.CartHeader, error) {
	if *r.misses > 0 {
		*r.misses--
		return nil, gorm.ErrRecordNotFound
	}
	return r.CartRepository.FindHeaderByUser(ctx, userID)
}

// staleItemRepo hides an existing line from the first stale lookups, so the
// insert that follows collides with the unique (cart_header_id, product_id) key.
type staleItemRepo struct {
	CartRepository
	stale *int
}

func (r staleItemRepo) WithTx(tx *gorm.DB) CartRepository {
	return staleItemRepo{CartRepository: r.CartRepository.WithTx(tx), stale: r.stale}
}

func (r staleItemRepo) FindItem(ctx context.Context, headerID, productID uuid.UUID) (*models.CartItem, error) {
	if *r.stale > 0 {
		*r.stale--
		return nil, gorm.ErrRecordNotFound
	}
	return r.CartRepository.FindItem(ctx, headerID, productID)
}
