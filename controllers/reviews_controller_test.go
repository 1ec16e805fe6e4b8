package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/middlewares"
	"storefront/models"
	"storefront/reviews"
)

type fakeReviews struct {
	list      []models.Review
	listErr   error
	createErr error
	deleteErr error

	createdProduct string
	createdToken   string
	deletedID      int
}

func (f *fakeReviews) ListByProduct(context.Context, string) ([]models.Review, error) {
	return f.list, f.listErr
}

func (f *fakeReviews) Create(_ context.Context, token, productID string, rating int, comment string) (*models.Review, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.createdProduct = productID
	f.createdToken = token
	return &models.Review{ID: 1, ProductID: productID, UserID: 1, Rating: rating, Comment: comment, CreatedAt: time.Now().UTC()}, nil
}

func (f *fakeReviews) Delete(_ context.Context, _ string, reviewID int) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedID = reviewID
	return nil
}

func reviewsRouter(api reviews.API) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ctl := &ReviewsController{Reviews: api, Logger: zap.NewNop()}

	r := gin.New()
	r.GET("/api/products/:id/reviews", ctl.ListProductReviews)
	auth := r.Group("/api", func(c *gin.Context) {
		c.Set(middlewares.ContextUserID, 1)
		c.Set(middlewares.ContextToken, "tok")
	})
	auth.POST("/reviews", ctl.CreateReview)
	auth.DELETE("/reviews/:id", ctl.DeleteReview)
	return r
}

func TestListProductReviews(t *testing.T) {
	api := &fakeReviews{list: []models.Review{{ID: 1, ProductID: "P1", Rating: 5}}}
	r := reviewsRouter(api)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/P1/reviews", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"rating":5`)
}

func TestListProductReviewsUnknownProduct(t *testing.T) {
	r := reviewsRouter(&fakeReviews{listErr: reviews.ErrNotFound})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/nope/reviews", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateReview(t *testing.T) {
	api := &fakeReviews{}
	r := reviewsRouter(api)

	req := httptest.NewRequest(http.MethodPost, "/api/reviews",
		bytes.NewReader([]byte(`{"product_id":"P1","rating":4,"comment":"Bueno"}`)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "P1", api.createdProduct)
	require.Equal(t, "tok", api.createdToken)
}

func TestCreateReviewValidatesRating(t *testing.T) {
	r := reviewsRouter(&fakeReviews{})

	for _, body := range []string{
		`{"product_id":"P1","rating":0}`,
		`{"product_id":"P1","rating":6}`,
		`{"rating":3}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/reviews", bytes.NewReader([]byte(body)))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestCreateReviewDuplicate(t *testing.T) {
	r := reviewsRouter(&fakeReviews{createErr: reviews.ErrDuplicate})

	req := httptest.NewRequest(http.MethodPost, "/api/reviews",
		bytes.NewReader([]byte(`{"product_id":"P1","rating":4}`)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteReview(t *testing.T) {
	api := &fakeReviews{}
	r := reviewsRouter(api)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/reviews/9", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 9, api.deletedID)
}

func TestDeleteReviewNotOwner(t *testing.T) {
	r := reviewsRouter(&fakeReviews{deleteErr: reviews.ErrNotOwner})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/reviews/9", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)
}
