package kernel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/services/servicetest"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/response"
	"github.com/shashiranjanraj/storefront/pkg/storage"
	"github.com/shashiranjanraj/storefront/pkg/testkit"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type fixture struct {
	users    *servicetest.Users
	products *servicetest.Products
	orders   *servicetest.Orders
	disk     *servicetest.Disk
	tokens   *auth.TokenService
	handler  http.Handler
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                "testing",
		JWTSecret:          "kernel-test-secret",
		TokenTTL:           time.Hour,
		CORSAllowedOrigins: []string{"*"},
	}
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	f := &fixture{
		users:    servicetest.NewUsers(),
		products: servicetest.NewProducts(),
		orders:   servicetest.NewOrders(),
		disk:     servicetest.NewDisk(),
		tokens:   auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL),
	}
	k := NewHTTPKernel(cfg, Deps{
		Users:    f.users,
		Products: f.products,
		Orders:   f.orders,
		Disk:     f.disk,
		DB:       pinger{},
		Tokens:   f.tokens,
	})
	f.handler = k.Handler()
	return f
}

func (f *fixture) token(t *testing.T, id primitive.ObjectID) string {
	t.Helper()
	tok, err := f.tokens.Issue(auth.Identity{ID: id.Hex(), Email: "u@example.com", Name: "U"})
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, r)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()
	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestCheckoutFlow(t *testing.T) {
	f := newFixture(t, testConfig())

	vars := testkit.RunSequence(t, f.handler, "testdata/checkout_flow.json", nil)

	assert.True(t, strings.HasPrefix(vars["token"], "Bearer "))
	assert.Equal(t, 1, f.users.Len())
	assert.Equal(t, 1, f.orders.Len())
}

func TestSignupShortPasswordPersistsNothing(t *testing.T) {
	f := newFixture(t, testConfig())

	rec := f.do(http.MethodPost, "/signup", `{"name":"Bo","email":"bo@example.com","password":"short"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Password must be at least 8 characters", decodeError(t, rec).Message)
	assert.Zero(t, f.users.Len())
}

func TestSignupSetsHTTPOnlyCookie(t *testing.T) {
	f := newFixture(t, testConfig())

	rec := f.do(http.MethodPost, "/signup", `{"name":"Bo","email":"bo@example.com","password":"long-enough"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, int(time.Hour.Seconds()), cookies[0].MaxAge)
}

func TestProfile(t *testing.T) {
	f := newFixture(t, testConfig())

	rec := f.do(http.MethodGet, "/profile", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	id := primitive.NewObjectID()
	rec = f.do(http.MethodGet, "/profile", "", map[string]string{"Cookie": "token=" + f.token(t, id)})
	require.Equal(t, http.StatusOK, rec.Code)
	var claims map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &claims))
	assert.Equal(t, id.Hex(), claims["id"])
	assert.Equal(t, "u@example.com", claims["email"])

	rec = f.do(http.MethodGet, "/profile", "", map[string]string{"Cookie": "token=garbage"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", decodeError(t, rec).Message)
}

func TestOrderOfAnotherUserIsForbidden(t *testing.T) {
	f := newFixture(t, testConfig())
	lamp := f.products.Add(models.Product{Name: "Lamp", Price: 10, Description: "d", Category: "c"})
	owner := f.token(t, primitive.NewObjectID())

	body := `{"products":[{"productId":"` + lamp.Hex() + `","quantity":1}],"shippingAddress":"x"}`
	rec := f.do(http.MethodPost, "/orders", body, map[string]string{"Authorization": "Bearer " + owner})
	require.Equal(t, http.StatusCreated, rec.Code)
	orderID, err := testkit.Lookup(rec.Body.Bytes(), "order._id")
	require.NoError(t, err)

	stranger := f.token(t, primitive.NewObjectID())
	rec = f.do(http.MethodGet, "/orders/"+orderID, "", map[string]string{"Authorization": "Bearer " + stranger})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not authorized to access this order", decodeError(t, rec).Message)

	rec = f.do(http.MethodGet, "/orders/"+primitive.NewObjectID().Hex(), "", map[string]string{"Authorization": "Bearer " + owner})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderValidationWritesNothing(t *testing.T) {
	f := newFixture(t, testConfig())
	lamp := f.products.Add(models.Product{Name: "Lamp", Price: 10, Description: "d", Category: "c"})
	hdr := map[string]string{"Authorization": "Bearer " + f.token(t, primitive.NewObjectID())}

	cases := map[string]string{
		"not an array":   `{"products":"lamp","shippingAddress":"x"}`,
		"empty":          `{"products":[],"shippingAddress":"x"}`,
		"no address":     `{"products":[{"productId":"` + lamp.Hex() + `","quantity":1}]}`,
		"zero quantity":  `{"products":[{"productId":"` + lamp.Hex() + `","quantity":0}],"shippingAddress":"x"}`,
		"fractional":     `{"products":[{"productId":"` + lamp.Hex() + `","quantity":1.5}],"shippingAddress":"x"}`,
		"bad id":         `{"products":[{"productId":"nope","quantity":1}],"shippingAddress":"x"}`,
		"second invalid": `{"products":[{"productId":"` + lamp.Hex() + `","quantity":1},{"productId":"nope","quantity":1}],"shippingAddress":"x"}`,
	}
	for name, body := range cases {
		rec := f.do(http.MethodPost, "/orders", body, hdr)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
	assert.Zero(t, f.orders.Len())
}

func TestOrderCreateAuthenticatesBeforeReadingBody(t *testing.T) {
	f := newFixture(t, testConfig())
	lamp := f.products.Add(models.Product{Name: "Lamp", Price: 10, Description: "d", Category: "c"})
	body := `{"products":[{"productId":"` + lamp.Hex() + `","quantity":1}],"shippingAddress":12}`

	rec := f.do(http.MethodPost, "/orders", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication required. Bearer token missing.", decodeError(t, rec).Message)

	rec = f.do(http.MethodPost, "/orders", `{"products":`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, f.orders.Len())

	rec = f.do(http.MethodPost, "/orders", body, map[string]string{"Authorization": "Bearer " + f.token(t, primitive.NewObjectID())})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	addr, err := testkit.Lookup(rec.Body.Bytes(), "order.shippingAddress")
	require.NoError(t, err)
	assert.Equal(t, "12", addr)
}

func TestOrderListWithDeletedProduct(t *testing.T) {
	f := newFixture(t, testConfig())
	lamp := f.products.Add(models.Product{Name: "Lamp", Price: 10, Description: "d", Category: "c"})
	tok := "Bearer " + f.token(t, primitive.NewObjectID())

	body := `{"products":[{"productId":"` + lamp.Hex() + `","quantity":3}],"shippingAddress":"x"}`
	require.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/orders", body, map[string]string{"Authorization": tok}).Code)
	f.products.Remove(lamp)

	rec := f.do(http.MethodGet, "/orders", "", map[string]string{"Authorization": tok})
	require.Equal(t, http.StatusOK, rec.Code)

	var views []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.EqualValues(t, 30, views[0]["totalPrice"])
	line := views[0]["products"].([]interface{})[0].(map[string]interface{})
	assert.Nil(t, line["productId"])
	assert.EqualValues(t, 3, line["quantity"])
}

func TestOrderListRequiresToken(t *testing.T) {
	f := newFixture(t, testConfig())

	rec := f.do(http.MethodGet, "/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication required", decodeError(t, rec).Message)

	rec = f.do(http.MethodGet, "/orders", "", map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", decodeError(t, rec).Message)
}

func TestProductRoundTripIsIdempotent(t *testing.T) {
	f := newFixture(t, testConfig())

	rec := f.do(http.MethodPost, "/products", `{"name":"Mug","price":4.5,"description":"Stoneware","category":"kitchen"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id, err := testkit.Lookup(rec.Body.Bytes(), "_id")
	require.NoError(t, err)

	first := f.do(http.MethodGet, "/products/"+id, "", nil)
	second := f.do(http.MethodGet, "/products/"+id, "", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Contains(t, first.Body.String(), `"images":[]`)

	rec = f.do(http.MethodPatch, "/products/"+id, `{"price":6,"name":""}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Mug", p.Name)
	assert.Equal(t, 6.0, p.Price)

	rec = f.do(http.MethodGet, "/products?category=kitchen", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id)
	rec = f.do(http.MethodGet, "/products?category=garden", "", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = f.do(http.MethodDelete, "/products/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Product deleted successfully"}`, rec.Body.String())

	rec = f.do(http.MethodDelete, "/products/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product not found", decodeError(t, rec).Message)
}

func TestProductCreateRejectsMissingFields(t *testing.T) {
	f := newFixture(t, testConfig())

	rec := f.do(http.MethodPost, "/products", `{"name":"Mug","price":0,"description":"d","category":"c"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "All fields are required", decodeError(t, rec).Message)

	rec = f.do(http.MethodPost, "/products", `{"name":"Mug","price":-1,"description":"d","category":"c"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Price must be a positive number", decodeError(t, rec).Message)
	assert.Zero(t, f.products.Len())
}

func TestCatalogGuard(t *testing.T) {
	cfg := testConfig()
	cfg.CatalogRequireAuth = true
	f := newFixture(t, cfg)

	body := `{"name":"Mug","price":4.5,"description":"Stoneware","category":"kitchen"}`
	rec := f.do(http.MethodPost, "/products", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication required", decodeError(t, rec).Message)

	rec = f.do(http.MethodPost, "/products", body, map[string]string{"Authorization": "Bearer " + f.token(t, primitive.NewObjectID())})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(http.MethodGet, "/products", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadImage(t *testing.T) {
	f := newFixture(t, testConfig())
	id := f.products.Add(models.Product{Name: "Lamp", Price: 10, Description: "d", Category: "c"})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="image"; filename="lamp.png"`)
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write([]byte("\x89PNG fake"))
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/products/"+id.Hex()+"/images", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	url, err := testkit.Lookup(rec.Body.Bytes(), "images.0")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://cdn.test/products/"+id.Hex()+"/"))
	assert.True(t, strings.HasSuffix(url, ".png"))
	assert.Equal(t, 1, f.disk.Len())

	rec = f.do(http.MethodPost, "/products/"+id.Hex()+"/images", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Image file is required", decodeError(t, rec).Message)
}

func TestMessages(t *testing.T) {
	f := newFixture(t, testConfig())

	rec := f.do(http.MethodPost, "/messages", `{"name":"Ada","email":"ada@example.com","message":"hi"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/messages", `{"name":"Ada","email":"not-an-email","message":"hi"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid email format", decodeError(t, rec).Message)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, testConfig())

	rec := f.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	f.do(http.MethodGet, "/products", "", nil)
	rec = f.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_http_requests_total")

	down := NewHTTPKernel(testConfig(), Deps{DB: pinger{err: errors.New("down")}, Tokens: f.tokens})
	rec = httptest.NewRecorder()
	down.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLocalDiskIsServed(t *testing.T) {
	local, err := storage.NewLocal(t.TempDir(), "http://localhost/storage")
	require.NoError(t, err)
	require.NoError(t, local.Put(context.Background(), "products/a.txt", strings.NewReader("hello"), "text/plain"))

	k := NewHTTPKernel(testConfig(), Deps{Disk: local, DB: pinger{}})
	rec := httptest.NewRecorder()
	k.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, StoragePrefix+"/products/a.txt", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())
}

func TestRoutesAreNamed(t *testing.T) {
	k := NewHTTPKernel(testConfig(), Deps{})

	names := map[string]bool{}
	for _, ri := range k.Routes() {
		names[ri.Name] = true
	}
	for _, want := range []string{
		"auth.signup", "auth.signin", "auth.profile", "auth.signout",
		"orders.store", "orders.index", "orders.show",
		"products.index", "products.show", "products.store", "products.update",
		"products.patch", "products.destroy", "products.images",
		"messages.store", "health", "metrics",
	} {
		assert.True(t, names[want], want)
	}
}

func TestOrderReadIsIdempotent(t *testing.T) {
	f := newFixture(t, testConfig())
	widget := f.products.Add(models.Product{Name: "Widget", Price: 9.99, Description: "d", Category: "c"})
	hdr := map[string]string{"Authorization": "Bearer " + f.token(t, primitive.NewObjectID())}

	body := `{"products":[{"productId":"` + widget.Hex() + `","quantity":3}],"shippingAddress":"x"}`
	rec := f.do(http.MethodPost, "/orders", body, hdr)
	require.Equal(t, http.StatusCreated, rec.Code)
	id, err := testkit.Lookup(rec.Body.Bytes(), "order._id")
	require.NoError(t, err)

	first := f.do(http.MethodGet, "/orders/"+id, "", hdr)
	second := f.do(http.MethodGet, "/orders/"+id, "", hdr)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())

	rec = f.do(http.MethodGet, "/products/"+widget.Hex(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Widget", p.Name)
	assert.Equal(t, 9.99, p.Price)
	assert.Equal(t, []string{}, p.Images)
}

func TestSignoutClearsCookie(t *testing.T) {
	f := newFixture(t, testConfig())

	rec := f.do(http.MethodPost, "/signout", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Signed out"}`, rec.Body.String())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}
