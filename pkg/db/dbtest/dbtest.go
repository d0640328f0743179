// Package dbtest opens migrated in-memory sqlite databases for repository and
// service tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/angelmondragon/ecommerce-backend/pkg/db"
	"github.com/angelmondragon/ecommerce-backend/pkg/db/models"
	"github.com/angelmondragon/ecommerce-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open returns a client over a private in-memory database with the full schema
// and the built-in roles. The database is dropped when the test finishes.
func Open(t testing.TB) *db.Client {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := db.SQLiteDSN(fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8]))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := models.AutoMigrate(conn); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	for _, role := range enums.BuiltinRoles() {
		if err := conn.Create(&models.Role{Name: role.String()}).Error; err != nil {
			t.Fatalf("seed role %s: %v", role, err)
		}
	}
	return db.NewFromConn(conn)
}

// Role loads a seeded role by name.
func Role(t testing.TB, conn *gorm.DB, role enums.Role) *models.Role {
	t.Helper()
	var out models.Role
	if err := conn.Where("name = ?", role.String()).First(&out).Error; err != nil {
		t.Fatalf("load role %s: %v", role, err)
	}
	return &out
}

// MustCreateUser inserts a user with the given role and a throwaway password hash.
func MustCreateUser(t testing.TB, conn *gorm.DB, role enums.Role) *models.User {
	t.Helper()
	suffix := uuid.NewString()[:8]
	user := &models.User{
		Username:     "user_" + suffix,
		Email:        fmt.Sprintf("user_%s@example.com", suffix),
		PasswordHash: "hash",
		RoleID:       Role(t, conn, role).ID,
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// MustCreateCategory inserts a category with a unique slug.
func MustCreateCategory(t testing.TB, conn *gorm.DB) *models.Category {
	t.Helper()
	suffix := uuid.NewString()[:8]
	category := &models.Category{
		Name: "Category " + suffix,
		Slug: "category-" + suffix,
	}
	if err := conn.Create(category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return category
}

// MustCreateProduct inserts a product priced at price (a decimal string such as "10.00").
func MustCreateProduct(t testing.TB, conn *gorm.DB, categoryID uuid.UUID, name, price string) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:       name,
		CategoryID: categoryID,
		Price:      decimal.RequireFromString(price),
		Stock:      10,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}
