package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercato/internal/domain"
	"mercato/internal/middleware"
	"mercato/internal/repository"
	"mercato/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const testJWTSecret = "test-secret"

type stubOrderService struct {
	orders    map[uuid.UUID]*domain.Order
	createErr error
}

func newStubOrderService() *stubOrderService {
	return &stubOrderService{orders: make(map[uuid.UUID]*domain.Order), createErr: service.ErrEmptyCart}
}

func (s *stubOrderService) Create(ctx context.Context, userID uuid.UUID, input service.CreateOrderInput) (*domain.Order, error) {
	return nil, s.createErr
}

func (s *stubOrderService) Get(ctx context.Context, userID uuid.UUID, role string, orderID uuid.UUID) (*domain.Order, error) {
	order, exists := s.orders[orderID]
	if !exists {
		return nil, repository.ErrOrderNotFound
	}
	if order.UserID != userID && role != domain.RoleAdmin && role != domain.RoleManager {
		return nil, service.ErrOrderAccessDenied
	}
	return order, nil
}

func (s *stubOrderService) List(ctx context.Context, userID uuid.UUID, role string, status *domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error) {
	return nil, 0, nil
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, input service.UpdateOrderStatusInput) (*domain.Order, error) {
	order, exists := s.orders[orderID]
	if !exists {
		return nil, repository.ErrOrderNotFound
	}
	order.Status = input.Status
	return order, nil
}

func signToken(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func newOrderRouter(svc service.OrderService) chi.Router {
	logger := zap.NewNop()
	router := chi.NewRouter()
	handler := NewOrderHandler(svc, logger)
	handler.RegisterRoutes(router, middleware.AuthMiddleware(testJWTSecret, logger), middleware.RequireStaff(logger))
	return router
}

func TestOrderRoutes_RequireAuthentication(t *testing.T) {
	router := newOrderRouter(newStubOrderService())

	req := httptest.NewRequest(http.MethodGet, "/api/orders/"+uuid.New().String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
}

func TestGetOrder_OwnerAndStaffAccess(t *testing.T) {
	svc := newStubOrderService()
	ownerID := uuid.New()
	order := &domain.Order{ID: uuid.New(), UserID: ownerID, Status: domain.OrderStatusPending}
	svc.orders[order.ID] = order

	router := newOrderRouter(svc)
	url := "/api/orders/" + order.ID.String()

	cases := []struct {
		name     string
		userID   uuid.UUID
		role     string
		expected int
	}{
		{"owner reads own order", ownerID, domain.RoleCustomer, http.StatusOK},
		{"stranger is forbidden", uuid.New(), domain.RoleCustomer, http.StatusForbidden},
		{"admin reads any order", uuid.New(), domain.RoleAdmin, http.StatusOK},
		{"manager reads any order", uuid.New(), domain.RoleManager, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, url, nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, tc.userID, tc.role))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.expected {
				t.Errorf("expected %d, got %d", tc.expected, rec.Code)
			}
		})
	}
}

func TestGetOrder_UnknownOrderIs404(t *testing.T) {
	router := newOrderRouter(newStubOrderService())

	req := httptest.NewRequest(http.MethodGet, "/api/orders/"+uuid.New().String(), nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.New(), domain.RoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestCreateOrder_ErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		expected int
	}{
		{"empty cart", service.ErrEmptyCart, http.StatusBadRequest},
		{"insufficient stock", repository.ErrInsufficientStock, http.StatusBadRequest},
		{"vanished product", repository.ErrProductNotFound, http.StatusNotFound},
		{"unknown address", repository.ErrAddressNotFound, http.StatusNotFound},
		{"unknown carrier", repository.ErrCarrierNotFound, http.StatusNotFound},
	}

	body := `{"shipping_address_id":"` + uuid.New().String() + `","billing_address_id":"` + uuid.New().String() + `"}`

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newStubOrderService()
			svc.createErr = tc.err
			router := newOrderRouter(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.New(), domain.RoleCustomer))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.expected {
				t.Errorf("expected %d, got %d", tc.expected, rec.Code)
			}
		})
	}
}

func TestUpdateOrderStatus_IsStaffOnly(t *testing.T) {
	svc := newStubOrderService()
	ownerID := uuid.New()
	order := &domain.Order{ID: uuid.New(), UserID: ownerID, Status: domain.OrderStatusPending}
	svc.orders[order.ID] = order

	router := newOrderRouter(svc)
	url := "/api/orders/" + order.ID.String() + "/status"
	body := `{"status":"SHIPPED","tracking_number":"TRK1"}`

	req := httptest.NewRequest(http.MethodPatch, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, ownerID, domain.RoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for customer, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPatch, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.New(), domain.RoleManager))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for manager, got %d", rec.Code)
	}
	if order.Status != domain.OrderStatusShipped {
		t.Errorf("expected status SHIPPED, got %s", order.Status)
	}
}
