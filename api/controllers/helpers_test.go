package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/ecommerce-backend/internal/cart"
	"github.com/angelmondragon/ecommerce-backend/internal/categories"
	productsvc "github.com/angelmondragon/ecommerce-backend/internal/products"
	"github.com/angelmondragon/ecommerce-backend/internal/roles"
	"github.com/angelmondragon/ecommerce-backend/internal/users"
	"github.com/angelmondragon/ecommerce-backend/pkg/db"
	"github.com/angelmondragon/ecommerce-backend/pkg/db/dbtest"
	"github.com/angelmondragon/ecommerce-backend/pkg/types"
)

type catalogStack struct {
	client     *db.Client
	products   productsvc.Service
	categories categories.Service
	roles      roles.Service
	users      users.Service
	carts      cart.Service
}

func newCatalogStack(t *testing.T) *catalogStack {
	t.Helper()
	client := dbtest.Open(t)
	conn := client.DB()

	productRepo := productsvc.NewRepository(conn)
	usersRepo := users.NewRepository(conn)
	rolesRepo := roles.NewRepository(conn)
	categoriesRepo := categories.NewRepository(conn)

	carts, err := cart.NewService(cart.ServiceParams{
		Repo:     cart.NewRepository(conn),
		Tx:       client,
		Products: productRepo,
		Users:    usersRepo,
	})
	require.NoError(t, err)

	products, err := productsvc.NewService(productRepo, client, categoriesRepo, carts)
	require.NoError(t, err)
	categorySvc, err := categories.NewService(categoriesRepo)
	require.NoError(t, err)
	roleSvc, err := roles.NewService(rolesRepo)
	require.NoError(t, err)
	userSvc, err := users.NewService(usersRepo, client, rolesRepo, carts)
	require.NoError(t, err)

	return &catalogStack{
		client:     client,
		products:   products,
		categories: categorySvc,
		roles:      roleSvc,
		users:      userSvc,
		carts:      carts,
	}
}

// serve routes a single request through a chi router so path params resolve.
func serve(method, pattern, target string, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, handler)

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, reader)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := types.SuccessEnvelope{Data: dest}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope), resp.Body.String())
}

func decodeErrorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope), resp.Body.String())
	return envelope.Error.Code
}
